// Package submission records recyclable-material deposits and pays their
// rewards. Accepting a reading computes the reward server-side and commits
// the submission record together with the balance credit as one atomic unit;
// readers never observe one without the other.
package submission

import (
	"context"
	"errors"
	"time"

	"github.com/trash2cash/station-platform/pkg/reward"
)

// Pipeline errors.
var (
	// ErrInvalidInput indicates a malformed reading: unknown material,
	// non-positive weight, or missing user.
	ErrInvalidInput = errors.New("invalid reading")

	// ErrCommitFailed indicates the atomic submission+credit operation did
	// not complete; no partial state was left behind.
	ErrCommitFailed = errors.New("submission commit failed")
)

// Submission is one accepted sensor reading. Immutable once committed.
type Submission struct {
	// ID uniquely identifies the submission and keys its ledger credit.
	ID string

	// UserID is the owner whose balance the reward credited.
	UserID string

	// Material is the recognized material category of the reading.
	Material reward.Material

	// Weight is the reading's weight in kilograms.
	Weight float64

	// Reward is the rupiah amount credited, computed at commit time from
	// (material, weight) and never client-supplied.
	Reward int64

	// CreatedAt is the commit timestamp.
	CreatedAt time.Time
}

// ListOptions filter and page a submission history query.
type ListOptions struct {
	// Material restricts results to one category when non-empty.
	Material reward.Material

	// Limit caps the number of results. Zero means no cap.
	Limit int

	// Offset skips results for paging.
	Offset int
}

// Committer applies a submission record and its balance credit as one atomic
// unit: both commit or neither does.
type Committer interface {
	Commit(ctx context.Context, sub *Submission) error
}

// Store reads committed submission history.
type Store interface {
	// ListByUser returns the user's submissions, newest first.
	ListByUser(ctx context.Context, userID string, opts ListOptions) ([]*Submission, error)
}
