package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-editor/internal/application"
	"voice-editor/internal/domain"
	"voice-editor/internal/infra"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// ChatClient completes chat exchanges against any OpenAI-compatible endpoint.
// The API key travels with each request, so a key changed at runtime is used
// on the next call.
type ChatClient struct {
	baseURL    string
	httpClient *http.Client
	retry      infra.RetryConfig
}

func NewChatClient(baseURL string, timeout time.Duration) *ChatClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      infra.SingleAttempt(),
	}
}

// WithRetryConfig replaces the backoff policy, mostly for tests.
func (c *ChatClient) WithRetryConfig(cfg infra.RetryConfig) *ChatClient {
	c.retry = cfg
	return c
}

func (c *ChatClient) Complete(ctx context.Context, req application.CompletionRequest) (string, error) {
	config := goopenai.DefaultConfig(req.Credential)
	config.BaseURL = c.baseURL
	config.HTTPClient = c.httpClient
	client := goopenai.NewClientWithConfig(config)

	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	var resp goopenai.ChatCompletionResponse
	err := infra.WithRetry(ctx, c.retry, func() error {
		var err error
		resp, err = client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
			Model:    req.Model,
			Messages: messages,
		})
		return classify(err)
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", &domain.UpstreamError{Status: http.StatusOK, Message: "response contained no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps client errors onto the domain error types and marks the ones
// a retry cannot fix.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		upstream := &domain.UpstreamError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		if infra.IsRetryableHTTPStatus(apiErr.HTTPStatusCode) {
			return upstream
		}
		return infra.Permanent(upstream)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		upstream := &domain.UpstreamError{Status: reqErr.HTTPStatusCode}
		if reqErr.Err != nil {
			upstream.Message = reqErr.Err.Error()
		}
		if infra.IsRetryableHTTPStatus(reqErr.HTTPStatusCode) {
			return upstream
		}
		return infra.Permanent(upstream)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.TransportError{Err: err}
	}
	return &domain.TransportError{Err: fmt.Errorf("calling provider: %w", err)}
}
