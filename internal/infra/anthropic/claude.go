package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-editor/internal/application"
	"voice-editor/internal/domain"
	"voice-editor/internal/infra"
)

// maxTokens leaves room for a complete page in one reply.
const maxTokens = 8192

// ClaudeClient is a Completer backed by the Anthropic Messages API. System
// messages are lifted into the top-level system field.
type ClaudeClient struct {
	httpClient *http.Client
	baseURL    string
	retry      infra.RetryConfig
}

func NewClaudeClient(timeout time.Duration) *ClaudeClient {
	return NewClaudeClientWithURL("https://api.anthropic.com/v1", timeout)
}

func NewClaudeClientWithURL(baseURL string, timeout time.Duration) *ClaudeClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ClaudeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retry:      infra.SingleAttempt(),
	}
}

func (c *ClaudeClient) WithRetryConfig(cfg infra.RetryConfig) *ClaudeClient {
	c.retry = cfg
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *ClaudeClient) Complete(ctx context.Context, in application.CompletionRequest) (string, error) {
	reqBody := request{Model: in.Model, MaxTokens: maxTokens}

	var system []string
	for _, m := range in.Messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		reqBody.Messages = append(reqBody.Messages, message{Role: m.Role, Content: m.Content})
	}
	reqBody.System = strings.Join(system, "\n\n")

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", in.Credential)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &domain.TransportError{Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			upstream := &domain.UpstreamError{Status: resp.StatusCode}
			var apiErr errorResponse
			if json.Unmarshal(respBody, &apiErr) == nil {
				upstream.Message = apiErr.Error.Message
			}
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return upstream
			}
			return infra.Permanent(upstream)
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return infra.Permanent(&domain.TransportError{Err: fmt.Errorf("decoding response: %w", err)})
		}

		return nil
	})

	if retryErr != nil {
		return "", retryErr
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", &domain.UpstreamError{Status: http.StatusOK, Message: "empty response from claude"}
	}
	return text.String(), nil
}
