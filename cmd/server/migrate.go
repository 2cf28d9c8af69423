package main

import (
	"context"
	"database/sql"
	"time"

	"onboard/internal/onboarding/store/records"
	dErrors "onboard/pkg/domain-errors"
	auditpostgres "onboard/pkg/platform/audit/store/postgres"
	txcontext "onboard/pkg/platform/tx"
)

const defaultMigrateTimeout = 30 * time.Second

// runInTx runs fn with the transaction in its context so stores join it.
func runInTx(ctx context.Context, db *sql.DB, timeout time.Duration, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), tx); err != nil {
		return err
	}
	return tx.Commit()
}

// migrate creates the onboarding tables and the audit outbox in one
// transaction. Every statement is idempotent.
func migrate(ctx context.Context, db *sql.DB) error {
	return runInTx(ctx, db, defaultMigrateTimeout, func(ctx context.Context, tx *sql.Tx) error {
		for _, schema := range []string{records.Schema, auditpostgres.Schema} {
			if _, err := tx.ExecContext(ctx, schema); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "apply schema")
			}
		}
		return nil
	})
}
