package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultEditPrompt = "You are an assistant that helps modify HTML, CSS, and JavaScript based on user voice commands. " +
		"Respond only with the updated full HTML code, including all necessary CSS and JS, without any additional explanations. " +
		"Make sure you stick to a modern and complete looking design, but also experiment with different designs."
	defaultTitlePrompt = "You are an assistant that generates concise and relevant titles based on provided text. " +
		"Provide only the title without any additional text."
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Recognition RecognitionConfig `yaml:"recognition"`
	LLM         LLMConfig         `yaml:"llm"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr" validate:"required"`
	AuthToken     string `yaml:"auth_token"`
	RatePerMinute int    `yaml:"rate_per_minute" validate:"gte=0"`
}

type RecognitionConfig struct {
	Source     string `yaml:"source" validate:"oneof=browser microphone"`
	SampleRate int    `yaml:"sample_rate" validate:"gt=0"`
	MaxSeconds int    `yaml:"max_seconds" validate:"gt=0"`
}

type LLMConfig struct {
	Provider string `yaml:"provider" validate:"oneof=openai anthropic gemini"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`

	// APIKey seeds the credential store until a key is entered in the UI.
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	// TitleAfterPrompts is how many commands an untitled project takes before
	// it is named. A negative value disables title generation.
	TitleAfterPrompts int `yaml:"title_after_prompts"`

	Edit  ProfileConfig `yaml:"edit"`
	Title ProfileConfig `yaml:"title"`
}

type ProfileConfig struct {
	SystemPrompt string `yaml:"system_prompt" validate:"required"`
	Model        string `yaml:"model" validate:"required"`
}

type WhisperConfig struct {
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
}

type StorageConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// Load reads the YAML file at path. Variables from envFile (if it exists) are
// loaded into the environment first so ${VAR} references can use them.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RatePerMinute == 0 {
		c.Server.RatePerMinute = 30
	}
	if c.Recognition.Source == "" {
		c.Recognition.Source = "browser"
	}
	if c.Recognition.SampleRate == 0 {
		c.Recognition.SampleRate = 16000
	}
	if c.Recognition.MaxSeconds == 0 {
		c.Recognition.MaxSeconds = 15
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.LLM.TitleAfterPrompts == 0 {
		c.LLM.TitleAfterPrompts = 1
	}
	if c.LLM.Edit.SystemPrompt == "" {
		c.LLM.Edit.SystemPrompt = defaultEditPrompt
	}
	if c.LLM.Edit.Model == "" {
		c.LLM.Edit.Model = "llama-3.3-70b-versatile"
	}
	if c.LLM.Title.SystemPrompt == "" {
		c.LLM.Title.SystemPrompt = defaultTitlePrompt
	}
	if c.LLM.Title.Model == "" {
		c.LLM.Title.Model = "llama-3.1-8b-instant"
	}
	if c.Whisper.BaseURL == "" {
		c.Whisper.BaseURL = c.LLM.BaseURL
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = "whisper-large-v3"
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "./data/editor.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks field constraints and reports every violation by its YAML name.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s: %s", strings.TrimPrefix(fe.Namespace(), "Config."), describe(fe)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}
