// Package auth issues and verifies the HMAC-signed JWT access tokens handed
// out at login and at QR session resolution.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a token that failed verification.
var ErrInvalidToken = errors.New("invalid access token")

// DefaultTokenTTL is the access token lifetime when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// Config configures the token service.
type Config struct {
	// Issuer is the iss claim stamped on and required of every token.
	Issuer string

	// SigningKey is the HMAC key used to sign and verify tokens.
	SigningKey []byte

	// TokenTTL is the access token lifetime. Zero means DefaultTokenTTL.
	TokenTTL time.Duration
}

// Service issues and verifies access tokens.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService creates a token service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("token issuer is required")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, fmt.Errorf("token signing key is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &Service{cfg: cfg, now: time.Now}, nil
}

// Issue signs a token for userID.
func (s *Service) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user ID is required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": s.cfg.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the bound user ID.
func (s *Service) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.cfg.SigningKey, nil
	}, jwt.WithIssuer(s.cfg.Issuer), jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return userID, nil
}
