// Package postgres provides PostgreSQL storage for user balances.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/trash2cash/station-platform/pkg/ledger"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// Ledger implements ledger.Ledger using PostgreSQL. Every credit inserts a
// row into ledger_credits, whose unique submission_id constraint is the
// at-most-once guard, then upserts the balance in the same transaction.
type Ledger struct {
	db *sql.DB
}

// New creates a new PostgreSQL ledger.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// CreditOnce adds amount to the user's balance, keyed by submissionID.
func (l *Ledger) CreditOnce(ctx context.Context, userID, submissionID string, amount int64) error {
	if amount < 0 {
		return ledger.ErrNegativeAmount
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning credit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := ApplyCredit(ctx, tx, userID, submissionID, amount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing credit: %w", err)
	}
	return nil
}

// Balance returns the user's current balance.
func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := l.db.QueryRowContext(ctx,
		`SELECT balance FROM balances WHERE user_id = $1`, userID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading balance: %w", err)
	}
	return balance, nil
}

// ApplyCredit records a one-time credit inside an existing transaction. The
// submission pipeline uses it to commit a submission and its credit as one
// unit; CreditOnce uses it standalone. This keeps all balance-mutating SQL in
// this package.
func ApplyCredit(ctx context.Context, tx *sql.Tx, userID, submissionID string, amount int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_credits (submission_id, user_id, amount, created_at)
		 VALUES ($1, $2, $3, NOW())`,
		submissionID, userID, amount,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ledger.ErrDuplicateCredit
		}
		return fmt.Errorf("inserting credit: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO balances (user_id, balance)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET balance = balances.balance + EXCLUDED.balance`,
		userID, amount,
	)
	if err != nil {
		return fmt.Errorf("updating balance: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ ledger.Ledger = (*Ledger)(nil)
