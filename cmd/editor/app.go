package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"voice-editor/config"
	"voice-editor/internal/application"
	"voice-editor/internal/domain"
	"voice-editor/internal/infra/anthropic"
	"voice-editor/internal/infra/audio"
	"voice-editor/internal/infra/gemini"
	"voice-editor/internal/infra/markup"
	"voice-editor/internal/infra/openai"
	"voice-editor/internal/infra/storage"
	"voice-editor/internal/infra/web"
)

type app struct {
	session *application.Session
	server  *web.Server
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	store, err := storage.NewFileStore(cfg.Storage.Path, domain.SanitizeCredential(cfg.LLM.APIKey))
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	completer := createCompleter(cfg.LLM)
	hub := web.NewHub(logger)
	recognizer := createRecognizer(cfg, hub, store, logger)

	dispatcher := application.NewDispatcher(completer, store, application.Profile{
		SystemPrompt: cfg.LLM.Edit.SystemPrompt,
		Model:        cfg.LLM.Edit.Model,
	}, logger)
	titles := application.NewTitleGenerator(completer, store, application.Profile{
		SystemPrompt: cfg.LLM.Title.SystemPrompt,
		Model:        cfg.LLM.Title.Model,
	}, logger)

	session := application.NewSession(
		recognizer,
		dispatcher,
		titles,
		markup.NewValidator(),
		application.NewProjects(store),
		store,
		hub,
		application.SessionConfig{
			RequestTimeout:    cfg.LLM.Timeout,
			TitleAfterPrompts: cfg.LLM.TitleAfterPrompts,
		},
		logger,
	)
	hub.Attach(session)

	server := web.NewServer(web.ServerConfig{
		Addr:          cfg.Server.Addr,
		AuthToken:     cfg.Server.AuthToken,
		RatePerMinute: cfg.Server.RatePerMinute,
	}, hub, session, logger)

	return &app{session: session, server: server}, nil
}

// Run serves until ctx is canceled or either the session or the server fails.
func (a *app) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.session.Run(ctx) })
	g.Go(func() error { return a.server.Run(ctx) })
	return g.Wait()
}

func createCompleter(cfg config.LLMConfig) application.Completer {
	switch cfg.Provider {
	case "anthropic":
		if cfg.BaseURL != "" {
			return anthropic.NewClaudeClientWithURL(cfg.BaseURL, cfg.Timeout)
		}
		return anthropic.NewClaudeClient(cfg.Timeout)
	case "gemini":
		if cfg.BaseURL != "" {
			return gemini.NewClientWithURL(cfg.BaseURL, cfg.Timeout)
		}
		return gemini.NewClient(cfg.Timeout)
	default:
		return openai.NewChatClient(cfg.BaseURL, cfg.Timeout)
	}
}

func createRecognizer(cfg *config.Config, hub *web.Hub, store *storage.FileStore, logger zerolog.Logger) application.Recognizer {
	switch cfg.Recognition.Source {
	case "microphone":
		stt := openai.NewWhisperClient(store, cfg.Whisper.BaseURL, cfg.Whisper.Model, cfg.Whisper.Language)
		return audio.NewMicrophoneRecognizer(stt, cfg.Recognition.SampleRate, cfg.Recognition.MaxSeconds, logger)
	default:
		return hub.Recognizer()
	}
}
