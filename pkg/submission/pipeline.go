package submission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/trash2cash/station-platform/pkg/reward"
)

// Pipeline validates sensor readings, computes their rewards, and commits
// them. Each accepted reading yields exactly one submission and one credit;
// deduplicating scans of the same physical item is the kiosk workflow's job.
type Pipeline struct {
	calc      *reward.Calculator
	committer Committer
	store     Store
	now       func() time.Time
	newID     func() string
}

// NewPipeline creates a submission pipeline.
func NewPipeline(calc *reward.Calculator, committer Committer, store Store) *Pipeline {
	return &Pipeline{
		calc:      calc,
		committer: committer,
		store:     store,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// AcceptReading validates the reading, computes its reward, and atomically
// commits the submission record and balance credit. On any storage failure
// the whole operation rolls back and ErrCommitFailed is returned.
func (p *Pipeline) AcceptReading(ctx context.Context, userID string, material reward.Material, weight float64) (*Submission, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	if !material.Valid() {
		return nil, fmt.Errorf("%w: unknown material %q", ErrInvalidInput, material)
	}
	if weight <= 0 {
		return nil, fmt.Errorf("%w: weight %v must be positive", ErrInvalidInput, weight)
	}

	amount, err := p.calc.Calculate(material, weight)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sub := &Submission{
		ID:        p.newID(),
		UserID:    userID,
		Material:  material,
		Weight:    weight,
		Reward:    amount,
		CreatedAt: p.now(),
	}

	if err := p.committer.Commit(ctx, sub); err != nil {
		slog.Error("submission: commit failed", "user_id", userID, "material", material, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	slog.Info("submission: committed",
		"user_id", userID, "material", material, "weight", weight, "reward", amount)
	return sub, nil
}

// Quote returns the reward a reading would earn without committing anything.
func (p *Pipeline) Quote(material reward.Material, weight float64) (int64, error) {
	amount, err := p.calc.Calculate(material, weight)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return amount, nil
}

// ListSubmissions returns the user's submission history, newest first.
func (p *Pipeline) ListSubmissions(ctx context.Context, userID string, opts ListOptions) ([]*Submission, error) {
	subs, err := p.store.ListByUser(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	return subs, nil
}
