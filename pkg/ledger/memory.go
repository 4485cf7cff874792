package ledger

import (
	"context"
	"sync"
)

// MemoryLedger implements Ledger using mutex-guarded maps. Suitable for
// single-process deployments and tests; for production use postgres.Ledger.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	credited map[string]bool
}

// NewMemoryLedger creates a new in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[string]int64),
		credited: make(map[string]bool),
	}
}

// CreditOnce adds amount to the user's balance, keyed by submissionID.
func (l *MemoryLedger) CreditOnce(_ context.Context, userID, submissionID string, amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.credited[submissionID] {
		return ErrDuplicateCredit
	}
	l.credited[submissionID] = true
	l.balances[userID] += amount
	return nil
}

// Balance returns the user's current balance.
func (l *MemoryLedger) Balance(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balances[userID], nil
}

// Verify interface compliance.
var _ Ledger = (*MemoryLedger)(nil)
