package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const titleInstruction = "Generate a title based on the following transcription:\n\n\"%s\""

// TitleGenerator names a project from the first thing the user said in it.
type TitleGenerator struct {
	completer   Completer
	credentials CredentialStore
	profile     Profile
	logger      zerolog.Logger
}

func NewTitleGenerator(completer Completer, credentials CredentialStore, profile Profile, logger zerolog.Logger) *TitleGenerator {
	return &TitleGenerator{
		completer:   completer,
		credentials: credentials,
		profile:     profile,
		logger:      logger.With().Str("component", "title").Logger(),
	}
}

// Generate returns a title, or an empty string if the model produced nothing usable.
func (g *TitleGenerator) Generate(ctx context.Context, transcript string) (string, error) {
	credential, err := checkedCredential(g.credentials)
	if err != nil {
		return "", err
	}

	reply, err := g.completer.Complete(ctx, CompletionRequest{
		Credential: credential,
		Model:      g.profile.Model,
		Messages: []Message{
			{Role: "system", Content: g.profile.SystemPrompt},
			{Role: "user", Content: fmt.Sprintf(titleInstruction, transcript)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generating title: %w", err)
	}

	title := strings.TrimSpace(StripQuotes(strings.TrimSpace(reply)))
	g.logger.Info().Str("title", title).Msg("generated title")
	return title, nil
}
