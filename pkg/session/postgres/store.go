// Package postgres provides PostgreSQL storage for QR login sessions.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/trash2cash/station-platform/pkg/session"
)

// Store implements session.Store using PostgreSQL.
type Store struct {
	db     *sql.DB
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new PostgreSQL session store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create persists a new session.
func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	query := `
		INSERT INTO sessions (token, qr_payload, kiosk_id, status, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		sess.Token, sess.QRPayload, sess.KioskID, string(sess.Status), sess.UserID,
		sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// GetByToken retrieves a session. Returns nil, nil if the token is unknown.
func (s *Store) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	query := `
		SELECT token, qr_payload, kiosk_id, status, user_id, created_at, expires_at
		FROM sessions
		WHERE token = $1
	`
	return scanSession(s.db.QueryRowContext(ctx, query, token))
}

// CompareAndTransition atomically moves the session from expected to next.
// The conditional UPDATE is the linearization point: the row's status check
// and write happen in one statement, so exactly one concurrent caller sees
// RowsAffected == 1.
func (s *Store) CompareAndTransition(ctx context.Context, token string, expected, next session.Status, userID string) (bool, error) {
	var res sql.Result
	var err error
	if next.Resolved() {
		query := `
			UPDATE sessions
			SET status = $3, user_id = $4
			WHERE token = $1 AND status = $2
		`
		res, err = s.db.ExecContext(ctx, query, token, string(expected), string(next), userID)
	} else {
		query := `
			UPDATE sessions
			SET status = $3
			WHERE token = $1 AND status = $2
		`
		res, err = s.db.ExecContext(ctx, query, token, string(expected), string(next))
	}
	if err != nil {
		return false, fmt.Errorf("transitioning session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading transition result: %w", err)
	}
	return n == 1, nil
}

// ExpireIfDue retrieves a session, first moving it from pending to expired
// when now is past its deadline.
func (s *Store) ExpireIfDue(ctx context.Context, token string, now time.Time) (*session.Session, error) {
	expire := `
		UPDATE sessions
		SET status = $2
		WHERE token = $1 AND status = $3 AND expires_at <= $4
	`
	if _, err := s.db.ExecContext(ctx, expire, token,
		string(session.StatusExpired), string(session.StatusPending), now); err != nil {
		return nil, fmt.Errorf("expiring session: %w", err)
	}
	return s.GetByToken(ctx, token)
}

// Terminate marks the session expired regardless of its current state.
func (s *Store) Terminate(ctx context.Context, token string) error {
	query := `UPDATE sessions SET status = $2 WHERE token = $1`
	_, err := s.db.ExecContext(ctx, query, token, string(session.StatusExpired))
	if err != nil {
		return fmt.Errorf("terminating session: %w", err)
	}
	return nil
}

// DeletePendingByKiosk removes unresolved sessions for a kiosk.
func (s *Store) DeletePendingByKiosk(ctx context.Context, kioskID string) error {
	query := `DELETE FROM sessions WHERE kiosk_id = $1 AND status = $2`
	_, err := s.db.ExecContext(ctx, query, kioskID, string(session.StatusPending))
	if err != nil {
		return fmt.Errorf("deleting pending sessions: %w", err)
	}
	return nil
}

// Cleanup removes sessions whose deadline passed more than grace ago.
func (s *Store) Cleanup(ctx context.Context, now time.Time, grace time.Duration) error {
	query := `DELETE FROM sessions WHERE expires_at <= $1`
	_, err := s.db.ExecContext(ctx, query, now.Add(-grace))
	if err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}

// StartCleanupRoutine starts a background goroutine that periodically deletes
// long-expired sessions. The goroutine is stopped when Close is called.
func (s *Store) StartCleanupRoutine(interval, grace time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Cleanup(ctx, time.Now(), grace); err != nil {
					slog.Warn("session cleanup failed", "error", err)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine and waits for it to exit.
// It is safe to call Close even if StartCleanupRoutine was never called.
func (s *Store) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return nil
}

// scanSession scans a single row into a Session.
func scanSession(row *sql.Row) (*session.Session, error) {
	var sess session.Session
	var status string

	err := row.Scan(&sess.Token, &sess.QRPayload, &sess.KioskID, &status,
		&sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	sess.Status = session.Status(status)
	return &sess, nil
}

// Verify interface compliance.
var _ session.Store = (*Store)(nil)
