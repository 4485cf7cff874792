// Package postgres provides PostgreSQL storage for submissions. Commit spans
// a single transaction over the submission insert and the ledger credit, so
// the two effects are never observed half-applied.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	ledgerpg "github.com/trash2cash/station-platform/pkg/ledger/postgres"
	"github.com/trash2cash/station-platform/pkg/reward"
	"github.com/trash2cash/station-platform/pkg/submission"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// submissionColumns lists columns returned by submission SELECT queries.
var submissionColumns = []string{
	"id", "user_id", "material", "weight", "reward", "created_at",
}

// Store implements submission.Committer and submission.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL submission store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Commit inserts the submission and applies its ledger credit in one
// transaction. Any failure rolls the whole operation back.
func (s *Store) Commit(ctx context.Context, sub *submission.Submission) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning submission transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO submissions (id, user_id, material, weight, reward, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.UserID, string(sub.Material), sub.Weight, sub.Reward, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}

	if err := ledgerpg.ApplyCredit(ctx, tx, sub.UserID, sub.ID, sub.Reward); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing submission: %w", err)
	}
	return nil
}

// ListByUser returns the user's submissions, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string, opts submission.ListOptions) ([]*submission.Submission, error) {
	qb := psq.Select(submissionColumns...).
		From("submissions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")
	if opts.Material != "" {
		qb = qb.Where(sq.Eq{"material": string(opts.Material)})
	}
	if opts.Limit > 0 {
		qb = qb.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		qb = qb.Offset(uint64(opts.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building submission query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []*submission.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating submission rows: %w", err)
	}
	return subs, nil
}

// scanSubmission scans a row from sql.Rows into a Submission.
func scanSubmission(rows *sql.Rows) (*submission.Submission, error) {
	var sub submission.Submission
	var material string

	err := rows.Scan(&sub.ID, &sub.UserID, &material, &sub.Weight, &sub.Reward, &sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning submission row: %w", err)
	}

	sub.Material = reward.Material(material)
	return &sub, nil
}

// Verify interface compliance.
var (
	_ submission.Committer = (*Store)(nil)
	_ submission.Store     = (*Store)(nil)
)
