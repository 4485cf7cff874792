package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTTL is the session lifetime fixed at creation.
	DefaultTTL = 5 * time.Minute

	// DefaultGrace is how long terminal sessions are kept before cleanup.
	DefaultGrace = 10 * time.Minute

	// tokenBytes is the number of random bytes in a session token.
	tokenBytes = 24

	// qrPayloadScheme prefixes the QR payload handed to the kiosk display.
	qrPayloadScheme = "trash2cash://connect?token="
)

// Config configures the session engine.
type Config struct {
	// TTL is the session lifetime. Zero means DefaultTTL.
	TTL time.Duration

	// RequestsPerMinute caps session requests per kiosk. Zero disables
	// rate limiting.
	RequestsPerMinute int

	// RequestBurst is the burst allowance per kiosk. Zero means 1 when
	// rate limiting is enabled.
	RequestBurst int
}

// Engine implements the session lifecycle: it issues tokens, resolves them
// against a user, and answers kiosk status polls. It holds no per-poll state;
// the kiosk's retry loop lives entirely client-side.
type Engine struct {
	store Store
	cfg   Config
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewEngine creates a session engine on top of store.
func NewEngine(store Store, cfg Config) *Engine {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RequestsPerMinute > 0 && cfg.RequestBurst <= 0 {
		cfg.RequestBurst = 1
	}
	return &Engine{
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// RequestSession issues a fresh pending session for the kiosk, superseding
// any unresolved one. Returns ErrRateLimited when the kiosk exceeds its
// request budget.
func (e *Engine) RequestSession(ctx context.Context, kioskID string) (*Session, error) {
	if !e.allow(kioskID) {
		return nil, fmt.Errorf("%w: kiosk %s", ErrRateLimited, kioskID)
	}

	if err := e.store.DeletePendingByKiosk(ctx, kioskID); err != nil {
		return nil, fmt.Errorf("superseding pending session: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	now := e.now()
	sess := &Session{
		Token:     token,
		QRPayload: qrPayloadScheme + token,
		KioskID:   kioskID,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(e.cfg.TTL),
	}

	if err := e.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	slog.Debug("session: issued", "kiosk_id", kioskID, "expires_at", sess.ExpiresAt)
	return sess, nil
}

// ResolveSession binds userID to a pending session, moving it to connected or,
// when activate is set, directly to active. Exactly one of any concurrent
// resolvers wins; losers observe ErrAlreadyResolved.
func (e *Engine) ResolveSession(ctx context.Context, token, userID string, activate bool) (*Session, error) {
	sess, err := e.store.ExpireIfDue(ctx, token, e.now())
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess == nil {
		return nil, ErrNotFound
	}

	switch sess.Status {
	case StatusExpired:
		return nil, ErrExpired
	case StatusConnected, StatusActive:
		return nil, ErrAlreadyResolved
	}

	next := StatusConnected
	if activate {
		next = StatusActive
	}

	swapped, err := e.store.CompareAndTransition(ctx, token, StatusPending, next, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving session: %w", err)
	}
	if !swapped {
		// Another resolver moved the session out of pending first.
		return nil, ErrAlreadyResolved
	}

	sess.Status = next
	sess.UserID = userID
	slog.Info("session: resolved", "kiosk_id", sess.KioskID, "user_id", userID, "status", next)
	return sess, nil
}

// CheckStatus returns the current session state, lazily expiring an overdue
// pending session. It is idempotent and safe to poll at any cadence.
func (e *Engine) CheckStatus(ctx context.Context, token string) (*Session, error) {
	sess, err := e.store.ExpireIfDue(ctx, token, e.now())
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Activate moves a connected session to active once the kiosk begins a
// deposit flow. Activating an already-active session is a no-op.
func (e *Engine) Activate(ctx context.Context, token string) (*Session, error) {
	sess, err := e.CheckStatus(ctx, token)
	if err != nil {
		return nil, err
	}

	switch sess.Status {
	case StatusExpired:
		return nil, ErrExpired
	case StatusPending:
		return nil, ErrNotFound
	case StatusActive:
		return sess, nil
	}

	swapped, err := e.store.CompareAndTransition(ctx, token, StatusConnected, StatusActive, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("activating session: %w", err)
	}
	if swapped {
		sess.Status = StatusActive
	}
	return sess, nil
}

// EndSession terminates the session when the kiosk finishes or abandons it.
func (e *Engine) EndSession(ctx context.Context, token string) error {
	sess, err := e.store.GetByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if sess == nil {
		return ErrNotFound
	}
	if err := e.store.Terminate(ctx, token); err != nil {
		return fmt.Errorf("terminating session: %w", err)
	}
	slog.Debug("session: ended", "kiosk_id", sess.KioskID)
	return nil
}

// allow consults the kiosk's rate limiter.
func (e *Engine) allow(kioskID string) bool {
	if e.cfg.RequestsPerMinute <= 0 {
		return true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	lim, ok := e.limiters[kioskID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(e.cfg.RequestsPerMinute)/60.0), e.cfg.RequestBurst)
		e.limiters[kioskID] = lim
	}
	return lim.Allow()
}

// generateToken creates a cryptographically random session token.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
