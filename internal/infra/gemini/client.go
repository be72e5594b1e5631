package gemini

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

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client is a Completer backed by the Gemini generateContent API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      infra.RetryConfig
}

func NewClient(timeout time.Duration) *Client {
	return NewClientWithURL(DefaultBaseURL, timeout)
}

func NewClientWithURL(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retry:      infra.SingleAttempt(),
	}
}

func (c *Client) WithRetryConfig(cfg infra.RetryConfig) *Client {
	c.retry = cfg
	return c
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (c *Client) Complete(ctx context.Context, in application.CompletionRequest) (string, error) {
	reqBody := request{
		GenerationConfig: generationConfig{
			MaxOutputTokens: 8192,
			Temperature:     0.7,
		},
	}

	var system []part
	for _, m := range in.Messages {
		switch m.Role {
		case "system":
			system = append(system, part{Text: m.Content})
		case "assistant":
			reqBody.Contents = append(reqBody.Contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			reqBody.Contents = append(reqBody.Contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		reqBody.SystemInstruct = &content{Parts: system}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, in.Model)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", in.Credential)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &domain.TransportError{Err: err}
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return &domain.TransportError{Err: fmt.Errorf("reading response: %w", err)}
		}

		if resp.StatusCode != http.StatusOK {
			upstream := &domain.UpstreamError{Status: resp.StatusCode}
			var body response
			if json.Unmarshal(respBody, &body) == nil && body.Error != nil {
				upstream.Message = body.Error.Message
			}
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return upstream
			}
			return infra.Permanent(upstream)
		}

		if err = json.Unmarshal(respBody, &result); err != nil {
			return infra.Permanent(&domain.TransportError{Err: fmt.Errorf("decoding response: %w", err)})
		}
		return nil
	})

	if retryErr != nil {
		return "", retryErr
	}

	if result.Error != nil {
		return "", &domain.UpstreamError{Status: result.Error.Code, Message: result.Error.Message}
	}
	if len(result.Candidates) == 0 {
		return "", &domain.UpstreamError{Status: http.StatusOK, Message: "empty response from gemini"}
	}

	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", &domain.UpstreamError{Status: http.StatusOK, Message: "empty response from gemini"}
	}
	return text.String(), nil
}
