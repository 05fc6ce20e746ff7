package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinicops/clinic-flow/backend/internal/domain/providers"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/clients/postgres"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/observability"
	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

type txKey struct{}

// executor is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Adapters run statements through it so the same method works inside and
// outside a transaction scope.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// executorFrom returns the transaction bound to ctx when one exists, and
// the plain connection pool otherwise.
func executorFrom(ctx context.Context, db *sql.DB) executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// TxManager implements providers.TxManager over database/sql
type TxManager struct {
	client  *postgres.Client
	metrics *observability.Metrics
}

// NewTxManager creates a new transaction manager. metrics may be nil.
func NewTxManager(client *postgres.Client, metrics *observability.Metrics) providers.TxManager {
	return &TxManager{client: client, metrics: metrics}
}

// WithinTx runs fn inside a single database transaction. Repositories
// invoked with the context fn receives share the transaction. A nested
// call joins the enclosing transaction rather than opening a second one.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	start := time.Now()
	defer func() {
		if m.metrics != nil {
			observability.RecordDBMetric(ctx, m.metrics, "transaction", time.Since(start))
		}
	}()

	tx, err := m.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewTransactionFailedError("failed to begin transaction", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Error().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewTransactionFailedError("failed to commit transaction", err)
	}
	return nil
}
