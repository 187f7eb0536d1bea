package db

import (
	"context"
	"testing"
	"time"
)

func TestRetryPolicy_Attempts(t *testing.T) {
	if got := (RetryPolicy{MaxRetries: 3}).Attempts(); got != 4 {
		t.Errorf("expected 4 attempts, got %d", got)
	}
	if got := (RetryPolicy{MaxRetries: -1}).Attempts(); got != 1 {
		t.Errorf("negative retries still allow one attempt, got %d", got)
	}
}

func TestRetryPolicy_WaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := (RetryPolicy{Backoff: time.Hour}).Wait(ctx, 1); err == nil {
		t.Error("expected context error from cancelled wait")
	}
}
