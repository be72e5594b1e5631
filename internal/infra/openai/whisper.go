package openai

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-editor/internal/application"
	"voice-editor/internal/domain"
	"voice-editor/internal/infra"
)

const DefaultWhisperModel = "whisper-large-v3"

// WhisperClient transcribes WAV utterances with the audio transcription endpoint
// of the same provider the chat client talks to, using the stored API key.
type WhisperClient struct {
	credentials application.CredentialStore
	httpClient  *http.Client
	baseURL     string
	model       string
	language    string
	retry       infra.RetryConfig
}

func NewWhisperClient(credentials application.CredentialStore, baseURL, model, language string) *WhisperClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultWhisperModel
	}
	return &WhisperClient{
		credentials: credentials,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		language:    language,
		retry:       infra.DefaultRetryConfig(),
	}
}

func (c *WhisperClient) WithRetryConfig(cfg infra.RetryConfig) *WhisperClient {
	c.retry = cfg
	return c
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	apiKey, ok := c.credentials.Credential()
	apiKey = strings.TrimSpace(apiKey)
	if !ok || apiKey == "" {
		return "", domain.ErrMissingCredential
	}
	if !domain.ValidCredential(apiKey) {
		return "", domain.ErrInvalidCredential
	}

	config := goopenai.DefaultConfig(apiKey)
	config.BaseURL = c.baseURL
	config.HTTPClient = c.httpClient
	client := goopenai.NewClientWithConfig(config)

	var resp goopenai.AudioResponse
	err := infra.WithRetry(ctx, c.retry, func() error {
		var err error
		resp, err = client.CreateTranscription(ctx, goopenai.AudioRequest{
			Model:    c.model,
			Reader:   bytes.NewReader(audio),
			FilePath: "utterance.wav",
			Language: c.language,
		})
		return classify(err)
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Text), nil
}
