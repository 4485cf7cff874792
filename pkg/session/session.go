// Package session implements QR session login for recycling stations. A kiosk
// requests a session bound to a QR payload, a mobile client resolves it after
// scanning, and the kiosk polls status until the session is resolved or
// expires. All state transitions go through the Store's compare-and-transition
// primitive so concurrent resolvers produce exactly one winner.
package session

import (
	"context"
	"errors"
	"time"
)

// Session lifecycle errors.
var (
	// ErrNotFound indicates the token does not match a known session.
	ErrNotFound = errors.New("session not found")

	// ErrAlreadyResolved indicates the session already left the pending state.
	ErrAlreadyResolved = errors.New("session already resolved")

	// ErrExpired indicates the session TTL elapsed before resolution.
	ErrExpired = errors.New("session expired")

	// ErrRateLimited indicates the kiosk exceeded the session request budget.
	ErrRateLimited = errors.New("too many session requests")
)

// Status is a session lifecycle state. Transitions are forward-only:
// pending moves to connected, active or expired; connected moves to active
// or expired; active and expired are terminal.
type Status string

// Session statuses.
const (
	StatusPending   Status = "pending"
	StatusConnected Status = "connected"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
)

// Resolved reports whether a user is bound to a session in this status.
func (s Status) Resolved() bool {
	return s == StatusConnected || s == StatusActive
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusActive || s == StatusExpired
}

// Session represents one QR login attempt on a kiosk.
type Session struct {
	// Token is the opaque session credential and the primary lookup key.
	Token string

	// QRPayload is the rendering-ready encoding of the token shown on the
	// kiosk display. It is derived from the token and never used for lookups.
	QRPayload string

	// KioskID identifies the requesting kiosk. At most one pending session
	// exists per kiosk.
	KioskID string

	// Status is the current lifecycle state.
	Status Status

	// UserID is the owner bound at resolution; empty while pending.
	UserID string

	// CreatedAt is when the session was issued.
	CreatedAt time.Time

	// ExpiresAt is CreatedAt plus the engine TTL; fixed at creation, never
	// renewed.
	ExpiresAt time.Time
}

// Store defines session persistence. Implementations must make
// CompareAndTransition linearizable: of any number of concurrent calls with
// the same token and expected status, at most one succeeds, and subsequent
// reads observe the committed transition.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// GetByToken retrieves a session. Returns nil, nil if the token is unknown.
	GetByToken(ctx context.Context, token string) (*Session, error)

	// CompareAndTransition atomically moves the session from expected to next
	// and, when next is a resolved status, binds userID. It reports whether
	// this call performed the transition; false means the session is missing
	// or its status no longer matches expected.
	CompareAndTransition(ctx context.Context, token string, expected, next Status, userID string) (bool, error)

	// ExpireIfDue retrieves a session, first moving it from pending to
	// expired when now is past its deadline. Returns nil, nil if the token
	// is unknown.
	ExpireIfDue(ctx context.Context, token string, now time.Time) (*Session, error)

	// Terminate marks the session expired regardless of its current state.
	// Expired is terminal, so this never moves a session backward.
	Terminate(ctx context.Context, token string) error

	// DeletePendingByKiosk removes unresolved sessions for a kiosk, making
	// room for a fresh one.
	DeletePendingByKiosk(ctx context.Context, kioskID string) error

	// Cleanup removes sessions whose deadline passed more than grace ago.
	Cleanup(ctx context.Context, now time.Time, grace time.Duration) error

	// Close stops background routines and releases resources.
	Close() error
}
