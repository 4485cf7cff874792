package submission

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/trash2cash/station-platform/pkg/ledger"
)

// MemoryStore implements Committer and Store in memory. It also implements
// ledger.Ledger by routing every credit and balance read through the store's
// own lock, so a commit's credit and its submission record become visible as
// one unit. Readers must go through the store, not the wrapped ledger.
// Suitable for single-process deployments and tests; for production use
// postgres.Store.
type MemoryStore struct {
	mu     sync.Mutex
	byUser map[string][]*Submission
	ledger ledger.Ledger
}

// NewMemoryStore creates an in-memory submission store crediting through l.
func NewMemoryStore(l ledger.Ledger) *MemoryStore {
	return &MemoryStore{
		byUser: make(map[string][]*Submission),
		ledger: l,
	}
}

// Commit applies the submission record and its balance credit as one unit.
func (s *MemoryStore) Commit(ctx context.Context, sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.CreditOnce(ctx, sub.UserID, sub.ID, sub.Reward); err != nil {
		return fmt.Errorf("crediting reward: %w", err)
	}

	cp := *sub
	s.byUser[sub.UserID] = append(s.byUser[sub.UserID], &cp)
	return nil
}

// CreditOnce applies a standalone credit under the store's lock.
func (s *MemoryStore) CreditOnce(ctx context.Context, userID, submissionID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.CreditOnce(ctx, userID, submissionID, amount)
}

// Balance returns the user's balance under the store's lock, so it never
// observes a commit's credit before the submission record is in place.
func (s *MemoryStore) Balance(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Balance(ctx, userID)
}

// ListByUser returns the user's submissions, newest first.
func (s *MemoryStore) ListByUser(_ context.Context, userID string, opts ListOptions) ([]*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.byUser[userID]
	result := make([]*Submission, 0, len(all))
	for _, sub := range all {
		if opts.Material != "" && sub.Material != opts.Material {
			continue
		}
		cp := *sub
		result = append(result, &cp)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// Verify interface compliance.
var (
	_ Committer     = (*MemoryStore)(nil)
	_ Store         = (*MemoryStore)(nil)
	_ ledger.Ledger = (*MemoryStore)(nil)
)
