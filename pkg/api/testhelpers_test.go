package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trash2cash/station-platform/pkg/auth"
	"github.com/trash2cash/station-platform/pkg/ledger"
	"github.com/trash2cash/station-platform/pkg/reward"
	"github.com/trash2cash/station-platform/pkg/sensor"
	"github.com/trash2cash/station-platform/pkg/session"
	"github.com/trash2cash/station-platform/pkg/submission"
	"github.com/trash2cash/station-platform/pkg/user"
)

// testAPI wires the full handler over in-memory stores.
type testAPI struct {
	handler *Handler
	users   *user.Service
	tokens  *auth.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	sessStore := session.NewMemoryStore()
	t.Cleanup(func() { _ = sessStore.Close() })
	engine := session.NewEngine(sessStore, session.Config{})

	led := ledger.NewMemoryLedger()
	subStore := submission.NewMemoryStore(led)
	pipeline := submission.NewPipeline(reward.NewCalculator(nil), subStore, subStore)

	users := user.NewService(user.NewMemoryStore())

	tokens, err := auth.NewService(auth.Config{
		Issuer:     "trash2cash-test",
		SigningKey: []byte("test-signing-key"),
	})
	require.NoError(t, err)

	h := NewHandler(Deps{
		Sessions: engine,
		Users:    users,
		Tokens:   tokens,
		Pipeline: pipeline,
		Ledger:   subStore,
		Sensor:   sensor.NewSimulator(1),
	})

	return &testAPI{handler: h, users: users, tokens: tokens}
}

// do performs a request against the handler and returns the recorder.
func (a *testAPI) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// envelope decodes the uniform response envelope.
func envelope(t *testing.T, rec *httptest.ResponseRecorder) (bool, string, map[string]any) {
	t.Helper()

	var resp struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Success, resp.Message, resp.Data
}

// registerUser creates an account and returns its ID and a bearer token.
func (a *testAPI) registerUser(t *testing.T, email string) (string, string) {
	t.Helper()

	u, err := a.users.Register(context.Background(), "Test User", email, "password123")
	require.NoError(t, err)

	token, err := a.tokens.Issue(u.ID)
	require.NoError(t, err)
	return u.ID, token
}
