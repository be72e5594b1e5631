package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"voice-editor/internal/domain"
)

const editInstruction = "Modify the following HTML code based on this command: \"%s\"\n\nCurrent HTML Code:\n%s"

// Dispatcher turns a committed command into a candidate document.
type Dispatcher struct {
	completer   Completer
	credentials CredentialStore
	profile     Profile
	logger      zerolog.Logger
}

func NewDispatcher(completer Completer, credentials CredentialStore, profile Profile, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		completer:   completer,
		credentials: credentials,
		profile:     profile,
		logger:      logger.With().Str("component", "dispatcher").Logger(),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, command, document string) (string, error) {
	credential, err := checkedCredential(d.credentials)
	if err != nil {
		return "", err
	}

	d.logger.Info().Str("command", command).Str("model", d.profile.Model).Msg("dispatching command")

	reply, err := d.completer.Complete(ctx, CompletionRequest{
		Credential: credential,
		Model:      d.profile.Model,
		Messages: []Message{
			{Role: "system", Content: d.profile.SystemPrompt},
			{Role: "user", Content: fmt.Sprintf(editInstruction, command, document)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("requesting edit: %w", err)
	}

	candidate := StripCodeFence(StripQuotes(strings.TrimSpace(reply)))
	d.logger.Debug().Int("bytes", len(candidate)).Msg("received candidate document")
	return candidate, nil
}

func checkedCredential(store CredentialStore) (string, error) {
	credential, ok := store.Credential()
	credential = strings.TrimSpace(credential)
	if !ok || credential == "" {
		return "", domain.ErrMissingCredential
	}
	if !domain.ValidCredential(credential) {
		return "", domain.ErrInvalidCredential
	}
	return credential, nil
}

// StripQuotes removes one layer of matching double or single quotes.
func StripQuotes(text string) string {
	if len(text) < 2 {
		return text
	}
	first, last := text[0], text[len(text)-1]
	if first == last && (first == '"' || first == '\'') {
		return text[1 : len(text)-1]
	}
	return text
}

// StripCodeFence removes a single enclosing Markdown fence such as ```html ... ```.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return text
	}
	body := strings.TrimSuffix(trimmed[3:], "```")
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		// drop the language tag on the opening line
		if !strings.ContainsAny(body[:newline], "<>") {
			body = body[newline+1:]
		}
	}
	return strings.TrimSpace(body)
}
