package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"voice-editor/internal/application"
	"voice-editor/internal/domain"
	"voice-editor/internal/infra"
	"voice-editor/internal/infra/gemini"
)

func fastRetry() infra.RetryConfig {
	return infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func editRequest() application.CompletionRequest {
	return application.CompletionRequest{
		Credential: "AIza-test",
		Model:      "gemini-2.0-flash",
		Messages: []application.Message{
			{Role: "system", Content: "You edit pages."},
			{Role: "user", Content: "make the background blue"},
		},
	}
}

func TestClient_Complete(t *testing.T) {
	var got struct {
		SystemInstruction struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"systemInstruction"`
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.0-flash:generateContent" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("x-goog-api-key") != "AIza-test" || r.URL.Query().Get("key") != "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{
					{"text": "<html><body "},
					{"text": "style=\"background:blue\"></body></html>"},
				}}},
			},
		})
	}))
	defer server.Close()

	client := gemini.NewClientWithURL(server.URL, time.Second)
	reply, err := client.Complete(context.Background(), editRequest())
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	if reply != "<html><body style=\"background:blue\"></body></html>" {
		t.Errorf("reply: got %q", reply)
	}
	if len(got.SystemInstruction.Parts) != 1 || got.SystemInstruction.Parts[0].Text != "You edit pages." {
		t.Errorf("system instruction: got %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 1 || got.Contents[0].Role != "user" {
		t.Errorf("contents: got %+v", got.Contents)
	}
}

func TestClient_RejectedKeyIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "API key not valid."},
		})
	}))
	defer server.Close()

	client := gemini.NewClientWithURL(server.URL, time.Second).WithRetryConfig(fastRetry())
	_, err := client.Complete(context.Background(), editRequest())

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusBadRequest || upstream.Detail() != "API key not valid." {
		t.Errorf("upstream: got %+v", upstream)
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}

func TestClient_OverloadIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := gemini.NewClientWithURL(server.URL, time.Second).Complete(context.Background(), editRequest())

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 UpstreamError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}

func TestClient_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := gemini.NewClientWithURL(server.URL, time.Second).Complete(context.Background(), editRequest())

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Errorf("expected UpstreamError, got %v", err)
	}
}
