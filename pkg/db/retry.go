// Package db holds what the store transaction managers share.
package db

import (
	"context"
	"errors"
	"time"
)

// ErrTransactionExhausted is returned once a transaction has failed with a
// transient error on every permitted attempt.
var ErrTransactionExhausted = errors.New("transaction retries exhausted")

// RetryPolicy bounds how often a transient transaction failure is retried.
// MaxRetries counts retries after the first attempt; waits grow linearly.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func (p RetryPolicy) Attempts() int {
	return max(0, p.MaxRetries) + 1
}

// Wait sleeps before retry number attempt (1-based).
func (p RetryPolicy) Wait(ctx context.Context, attempt int) error {
	d := time.Duration(attempt) * p.Backoff
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
