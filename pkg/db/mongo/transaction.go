package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"rentals/pkg/db"
)

const (
	labelTransientTransaction = "TransientTransactionError"
	labelUnknownCommitResult  = "UnknownTransactionCommitResult"
)

type TransactionFunc func(ctx mongo.SessionContext) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
	policy db.RetryPolicy
}

func NewTransactionManager(client *mongo.Client, policy db.RetryPolicy) TransactionManager {
	return &mongoTransactionManager{
		client: client,
		policy: policy,
	}
}

// ExecuteTransaction runs fn in a snapshot transaction. Attempts that fail
// with a transient label are retried per the policy; any other error from
// fn is returned unchanged.
func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	if sessCtx, ok := ctx.(mongo.SessionContext); ok {
		return fn(sessCtx)
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	return runWithRetry(ctx, m.policy, func() error {
		return mongo.WithSession(ctx, session, func(sessCtx mongo.SessionContext) error {
			if err := session.StartTransaction(txnOpts); err != nil {
				return err
			}
			if err := fn(sessCtx); err != nil {
				_ = session.AbortTransaction(context.WithoutCancel(sessCtx))
				return err
			}
			return commitWithRetry(sessCtx, m.policy, func() error {
				return session.CommitTransaction(sessCtx)
			})
		})
	})
}

// runWithRetry repeats a whole transaction attempt while it fails with a
// transient label.
func runWithRetry(ctx context.Context, policy db.RetryPolicy, attempt func() error) error {
	var lastErr error
	for n := range policy.Attempts() {
		if n > 0 {
			if err := policy.Wait(ctx, n); err != nil {
				return err
			}
		}

		lastErr = attempt()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", db.ErrTransactionExhausted, policy.Attempts(), lastErr)
}

// commitWithRetry retries only the commit when its outcome is unknown.
func commitWithRetry(ctx context.Context, policy db.RetryPolicy, commit func() error) error {
	var err error
	for n := range policy.Attempts() {
		if n > 0 {
			if werr := policy.Wait(ctx, n); werr != nil {
				return werr
			}
		}
		err = commit()
		if err == nil || !hasLabel(err, labelUnknownCommitResult) {
			return err
		}
	}
	return err
}

// IsTransient reports whether err carries a label that makes the whole
// transaction safe to retry.
func IsTransient(err error) bool {
	return hasLabel(err, labelTransientTransaction) || hasLabel(err, labelUnknownCommitResult)
}

func hasLabel(err error, label string) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel(label)
	}
	return false
}
