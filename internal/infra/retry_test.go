package infra_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"voice-editor/internal/infra"
)

func fastRetry() infra.RetryConfig {
	return infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
}

func TestWithRetry_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestWithRetry_StopsOnPermanent(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return infra.Permanent(sentinel)
	})
	if err != sentinel {
		t.Errorf("error: got %v, want the unwrapped sentinel", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestWithRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return errors.New("still down")
	})
	if err == nil || err.Error() != "still down" {
		t.Errorf("error: got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestWithRetry_SingleAttempt(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), infra.SingleAttempt(), func() error {
		calls++
		return errors.New("overloaded")
	})
	if err == nil || calls != 1 {
		t.Errorf("got %v after %d calls, want one failed call", err, calls)
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := map[int]bool{200: false, 400: false, 401: false, 429: true, 500: true, 503: true}
	for status, want := range cases {
		if got := infra.IsRetryableHTTPStatus(status); got != want {
			t.Errorf("status %d: got %v, want %v", status, got, want)
		}
	}
}
