package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using a mutex-guarded map. Suitable for
// single-process deployments and tests; for production use postgres.Store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Create persists a new session.
func (s *MemoryStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sess
	s.sessions[sess.Token] = &cp
	return nil
}

// GetByToken retrieves a session. Returns nil, nil if the token is unknown.
func (s *MemoryStore) GetByToken(_ context.Context, token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	cp := *sess
	return &cp, nil
}

// CompareAndTransition atomically moves the session from expected to next.
// It reports whether this call performed the transition.
func (s *MemoryStore) CompareAndTransition(_ context.Context, token string, expected, next Status, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || sess.Status != expected {
		return false, nil
	}

	sess.Status = next
	if next.Resolved() {
		sess.UserID = userID
	}
	return true, nil
}

// ExpireIfDue retrieves a session, first moving it from pending to expired
// when now is past its deadline.
func (s *MemoryStore) ExpireIfDue(_ context.Context, token string, now time.Time) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	if sess.Status == StatusPending && now.After(sess.ExpiresAt) {
		sess.Status = StatusExpired
	}
	cp := *sess
	return &cp, nil
}

// Terminate marks the session expired regardless of its current state.
func (s *MemoryStore) Terminate(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[token]; ok {
		sess.Status = StatusExpired
	}
	return nil
}

// DeletePendingByKiosk removes unresolved sessions for a kiosk.
func (s *MemoryStore) DeletePendingByKiosk(_ context.Context, kioskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, sess := range s.sessions {
		if sess.KioskID == kioskID && sess.Status == StatusPending {
			delete(s.sessions, token)
		}
	}
	return nil
}

// Cleanup removes sessions whose deadline passed more than grace ago.
func (s *MemoryStore) Cleanup(_ context.Context, now time.Time, grace time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt.Add(grace)) {
			delete(s.sessions, token)
		}
	}
	return nil
}

// StartCleanupRoutine starts a background goroutine that periodically removes
// long-expired sessions. The goroutine is stopped when Close is called.
func (s *MemoryStore) StartCleanupRoutine(interval, grace time.Duration) {
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
				_ = s.Cleanup(ctx, time.Now(), grace)
			}
		}
	}()
}

// Close stops the cleanup goroutine and waits for it to exit.
// It is safe to call Close even if StartCleanupRoutine was never called.
func (s *MemoryStore) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
