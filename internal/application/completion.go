package application

import "context"

type Message struct {
	Role    string
	Content string
}

type CompletionRequest struct {
	Credential string
	Model      string
	Messages   []Message
}

// Completer sends one chat exchange to a language model and returns the reply text.
// Implementations report non-success responses as *domain.UpstreamError and
// network failures as *domain.TransportError.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Profile is one configured use of the model: a system prompt and a model id.
type Profile struct {
	SystemPrompt string
	Model        string
}
