// Package sql runs GORM transactions against SQLite with bounded retries
// on lock contention.
package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"rentals/pkg/db"
)

type txKey struct{}

type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type gormTransactionManager struct {
	db     *gorm.DB
	policy db.RetryPolicy
}

func NewTransactionManager(gdb *gorm.DB, policy db.RetryPolicy) TransactionManager {
	return &gormTransactionManager{
		db:     gdb,
		policy: policy,
	}
}

// DSN builds a go-sqlite3 connection string. Transactions begin IMMEDIATE
// so the write lock is taken up front, and a busy connection waits before
// reporting SQLITE_BUSY.
func DSN(path string) string {
	return path + "?_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

// ExecuteTransaction runs fn inside a transaction carried on the returned
// context. Nested calls join the outer transaction.
func (m *gormTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	var lastErr error
	for attempt := range m.policy.Attempts() {
		if attempt > 0 {
			if err := m.policy.Wait(ctx, attempt); err != nil {
				return err
			}
		}

		lastErr = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})

		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", db.ErrTransactionExhausted, m.policy.Attempts(), lastErr)
}

// Conn returns the transaction bound to ctx, or fallback scoped to ctx.
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

// IsRetryable reports lock contention that a fresh attempt can resolve.
func IsRetryable(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}
