// Package ledger owns per-user rupiah balances. Balances change only through
// CreditOnce, which ties every credit to exactly one submission so a retried
// commit can never pay twice.
package ledger

import (
	"context"
	"errors"
)

// Ledger errors.
var (
	// ErrDuplicateCredit indicates the submission was already credited.
	ErrDuplicateCredit = errors.New("submission already credited")

	// ErrNegativeAmount indicates a credit below zero, which the ledger
	// never applies.
	ErrNegativeAmount = errors.New("credit amount must not be negative")
)

// Ledger applies one-time credits and answers balance reads. Implementations
// must serialize concurrent credits to the same user so no update is lost.
type Ledger interface {
	// CreditOnce adds amount to the user's balance, keyed by submissionID.
	// A second call with the same submissionID returns ErrDuplicateCredit
	// and leaves the balance unchanged.
	CreditOnce(ctx context.Context, userID, submissionID string, amount int64) error

	// Balance returns the user's current balance. Unknown users have a zero
	// balance.
	Balance(ctx context.Context, userID string) (int64, error)
}
