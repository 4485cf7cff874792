// Package api provides the REST endpoints kiosks and mobile clients talk to.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/trash2cash/station-platform/internal/apidocs" // register swagger docs
	"github.com/trash2cash/station-platform/pkg/auth"
	"github.com/trash2cash/station-platform/pkg/health"
	"github.com/trash2cash/station-platform/pkg/ledger"
	"github.com/trash2cash/station-platform/pkg/reward"
	"github.com/trash2cash/station-platform/pkg/sensor"
	"github.com/trash2cash/station-platform/pkg/session"
	"github.com/trash2cash/station-platform/pkg/submission"
	"github.com/trash2cash/station-platform/pkg/user"
)

// errInvalidRequest covers malformed request bodies and missing headers.
var errInvalidRequest = errors.New("invalid request")

// Response is the uniform envelope every endpoint returns. Data is omitted
// on failures.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Deps holds the services the handler dispatches to.
type Deps struct {
	Sessions *session.Engine
	Users    *user.Service
	Tokens   *auth.Service
	Pipeline *submission.Pipeline
	Ledger   ledger.Ledger
	Sensor   sensor.Source

	// Health backs the liveness and readiness endpoints. Nil means a
	// checker that is always ready.
	Health *health.Checker

	// EnableDocs serves the swagger UI under /swagger/.
	EnableDocs bool
}

// Handler routes the station REST API.
type Handler struct {
	mux  *http.ServeMux
	deps Deps
}

// NewHandler creates the API handler and registers all routes.
func NewHandler(deps Deps) *Handler {
	if deps.Health == nil {
		deps.Health = health.NewChecker()
		deps.Health.SetReady()
	}
	h := &Handler{
		mux:  http.NewServeMux(),
		deps: deps,
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all API routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /api/v1/session/request", h.requestSession)
	h.mux.HandleFunc("POST /api/v1/session/check", h.checkSession)
	h.mux.HandleFunc("POST /api/v1/session/end", h.endSession)
	h.mux.Handle("POST /api/v1/session/connect", h.protected(h.connectSession))

	h.mux.HandleFunc("POST /api/v1/auth/register", h.register)
	h.mux.HandleFunc("POST /api/v1/auth/login", h.login)

	h.mux.Handle("GET /api/v1/user/profile", h.protected(h.profile))
	h.mux.Handle("POST /api/v1/deposit", h.protected(h.deposit))
	h.mux.Handle("GET /api/v1/transactions", h.protected(h.listTransactions))
	h.mux.Handle("GET /api/v1/sensor/reading", h.protected(h.sensorReading))

	h.mux.HandleFunc("GET /healthz", h.deps.Health.LivenessHandler())
	h.mux.HandleFunc("GET /readyz", h.deps.Health.ReadinessHandler())

	if h.deps.EnableDocs {
		h.mux.Handle("GET /swagger/", httpSwagger.Handler())
	}
}

// protected wraps a handler with bearer token authentication.
func (h *Handler) protected(fn http.HandlerFunc) http.Handler {
	return h.deps.Tokens.Middleware(fn)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData writes a successful envelope.
func writeData(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: msg, Data: data})
}

// writeError maps a domain error to its HTTP status and writes a failure
// envelope carrying the error text.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), Response{Success: false, Message: err.Error()})
}

// decode parses a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return nil
}

// statusFor translates domain errors into HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyResolved),
		errors.Is(err, user.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, session.ErrExpired):
		return http.StatusGone
	case errors.Is(err, session.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, submission.ErrInvalidInput),
		errors.Is(err, reward.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
