package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trash2cash/station-platform/pkg/ledger"
	"github.com/trash2cash/station-platform/pkg/reward"
)

type fixture struct {
	pipeline *Pipeline
	store    *MemoryStore
	ledger   *ledger.MemoryLedger
}

func newFixture() *fixture {
	l := ledger.NewMemoryLedger()
	store := NewMemoryStore(l)
	return &fixture{
		pipeline: NewPipeline(reward.NewCalculator(nil), store, store),
		store:    store,
		ledger:   l,
	}
}

func TestAcceptReading(t *testing.T) {
	f := newFixture()

	sub, err := f.pipeline.AcceptReading(context.Background(), "user42", reward.MaterialPlastic, 2.0)
	require.NoError(t, err)

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "user42", sub.UserID)
	assert.Equal(t, reward.MaterialPlastic, sub.Material)
	assert.Equal(t, 2.0, sub.Weight)
	assert.Equal(t, int64(4000), sub.Reward)
	assert.False(t, sub.CreatedAt.IsZero())

	balance, err := f.ledger.Balance(context.Background(), "user42")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), balance)

	subs, err := f.pipeline.ListSubmissions(context.Background(), "user42", ListOptions{})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.ID, subs[0].ID)
	assert.Equal(t, int64(4000), subs[0].Reward)
}

func TestAcceptReading_BalanceDelta(t *testing.T) {
	f := newFixture()

	_, err := f.pipeline.AcceptReading(context.Background(), "user42", reward.MaterialMetal, 1.0)
	require.NoError(t, err)

	before, err := f.ledger.Balance(context.Background(), "user42")
	require.NoError(t, err)

	sub, err := f.pipeline.AcceptReading(context.Background(), "user42", reward.MaterialGlass, 0.5)
	require.NoError(t, err)

	after, err := f.ledger.Balance(context.Background(), "user42")
	require.NoError(t, err)
	assert.Equal(t, before+sub.Reward, after)
}

func TestAcceptReading_ZeroWeight(t *testing.T) {
	f := newFixture()

	_, err := f.pipeline.AcceptReading(context.Background(), "user42", reward.MaterialPlastic, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAcceptReading_UnknownMaterial(t *testing.T) {
	f := newFixture()

	_, err := f.pipeline.AcceptReading(context.Background(), "user42", reward.Material("unknown-material"), 1.0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAcceptReading_MissingUser(t *testing.T) {
	f := newFixture()

	_, err := f.pipeline.AcceptReading(context.Background(), "", reward.MaterialPlastic, 1.0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAcceptReading_InvalidInputLeavesNoState(t *testing.T) {
	f := newFixture()

	_, err := f.pipeline.AcceptReading(context.Background(), "user42", reward.MaterialPlastic, -1)
	require.ErrorIs(t, err, ErrInvalidInput)

	balance, err := f.ledger.Balance(context.Background(), "user42")
	require.NoError(t, err)
	assert.Zero(t, balance)

	subs, err := f.pipeline.ListSubmissions(context.Background(), "user42", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

// faultCommitter fails every commit, simulating a storage outage.
type faultCommitter struct{}

func (faultCommitter) Commit(context.Context, *Submission) error {
	return errors.New("storage unavailable")
}

func TestAcceptReading_CommitFailure(t *testing.T) {
	l := ledger.NewMemoryLedger()
	store := NewMemoryStore(l)
	pipeline := NewPipeline(reward.NewCalculator(nil), faultCommitter{}, store)

	_, err := pipeline.AcceptReading(context.Background(), "user42", reward.MaterialPlastic, 2.0)
	assert.ErrorIs(t, err, ErrCommitFailed)

	// No partial state: neither a submission nor a credit is visible.
	balance, err := l.Balance(context.Background(), "user42")
	require.NoError(t, err)
	assert.Zero(t, balance)

	subs, err := store.ListByUser(context.Background(), "user42", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestAcceptReading_EachCallCommitsOnce(t *testing.T) {
	f := newFixture()

	// Identical readings are not deduplicated; each accepted call pays once.
	for range 3 {
		_, err := f.pipeline.AcceptReading(context.Background(), "user42", reward.MaterialPaper, 1.0)
		require.NoError(t, err)
	}

	balance, err := f.ledger.Balance(context.Background(), "user42")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), balance)

	subs, err := f.pipeline.ListSubmissions(context.Background(), "user42", ListOptions{})
	require.NoError(t, err)
	assert.Len(t, subs, 3)
}

func TestListSubmissions_NewestFirst(t *testing.T) {
	f := newFixture()

	base := time.Now()
	ticks := 0
	f.pipeline.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}

	first, err := f.pipeline.AcceptReading(context.Background(), "user42", reward.MaterialPlastic, 1.0)
	require.NoError(t, err)
	second, err := f.pipeline.AcceptReading(context.Background(), "user42", reward.MaterialMetal, 1.0)
	require.NoError(t, err)

	subs, err := f.pipeline.ListSubmissions(context.Background(), "user42", ListOptions{})
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, second.ID, subs[0].ID)
	assert.Equal(t, first.ID, subs[1].ID)
}

func TestListSubmissions_OtherUserEmpty(t *testing.T) {
	f := newFixture()

	_, err := f.pipeline.AcceptReading(context.Background(), "user42", reward.MaterialPlastic, 1.0)
	require.NoError(t, err)

	subs, err := f.pipeline.ListSubmissions(context.Background(), "user99", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, subs)
}
