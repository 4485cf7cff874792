package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/trash2cash/station-platform/pkg/auth"
	"github.com/trash2cash/station-platform/pkg/session"
)

// sessionTokenRequest carries the session token the kiosk holds.
type sessionTokenRequest struct {
	SessionToken string `json:"sessionToken"`
}

// sessionIssuedData is returned when a kiosk requests a fresh session.
type sessionIssuedData struct {
	SessionToken string `json:"sessionToken"`
	QRCode       string `json:"qrCode"`
	ExpiresAt    string `json:"expiresAt"`
	Status       string `json:"status"`
}

// sessionStatusData is returned by the polling endpoint. AuthToken and
// UserID are present once a user has connected.
type sessionStatusData struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	AuthToken string `json:"authToken,omitempty"`
}

// requestSession handles POST /api/v1/session/request.
//
// @Summary      Request a login session
// @Description  Issues a fresh QR login session for the kiosk named in X-Kiosk-ID. Any previous unresolved session for the kiosk is superseded.
// @Tags         Session
// @Produce      json
// @Param        X-Kiosk-ID  header  string  true  "Kiosk identifier"
// @Success      200  {object}  Response{data=sessionIssuedData}
// @Failure      400  {object}  Response
// @Failure      429  {object}  Response
// @Router       /session/request [post]
func (h *Handler) requestSession(w http.ResponseWriter, r *http.Request) {
	kioskID := r.Header.Get("X-Kiosk-ID")
	if kioskID == "" {
		writeError(w, fmt.Errorf("%w: missing X-Kiosk-ID header", errInvalidRequest))
		return
	}

	sess, err := h.deps.Sessions.RequestSession(r.Context(), kioskID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, "session issued", sessionIssuedData{
		SessionToken: sess.Token,
		QRCode:       sess.QRPayload,
		ExpiresAt:    sess.ExpiresAt.Format(time.RFC3339),
		Status:       string(sess.Status),
	})
}

// checkSession handles POST /api/v1/session/check.
//
// The kiosk polls this until a user connects. Once the session is resolved
// the kiosk receives an auth token for the connected user and the session
// moves to active, marking that the kiosk picked up the login.
//
// @Summary      Poll session status
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body  sessionTokenRequest  true  "Session token"
// @Success      200  {object}  Response{data=sessionStatusData}
// @Failure      404  {object}  Response
// @Failure      410  {object}  Response
// @Router       /session/check [post]
func (h *Handler) checkSession(w http.ResponseWriter, r *http.Request) {
	var req sessionTokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.deps.Sessions.CheckStatus(r.Context(), req.SessionToken)
	if err != nil {
		writeError(w, err)
		return
	}
	if sess.Status == session.StatusExpired {
		writeError(w, session.ErrExpired)
		return
	}

	data := sessionStatusData{Status: string(sess.Status)}
	if sess.Status.Resolved() {
		token, err := h.deps.Tokens.Issue(sess.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		data.UserID = sess.UserID
		data.AuthToken = token

		if sess.Status == session.StatusConnected {
			act, err := h.deps.Sessions.Activate(r.Context(), req.SessionToken)
			if err != nil {
				writeError(w, err)
				return
			}
			data.Status = string(act.Status)
		}
	}

	writeData(w, "session status", data)
}

// connectSession handles POST /api/v1/session/connect.
//
// @Summary      Connect a scanned session
// @Description  Called by the mobile app after scanning the kiosk QR code. Binds the authenticated user to the session; of concurrent scans, exactly one wins.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body  sessionTokenRequest  true  "Session token from the QR code"
// @Success      200  {object}  Response{data=sessionStatusData}
// @Failure      401  {object}  Response
// @Failure      404  {object}  Response
// @Failure      409  {object}  Response
// @Failure      410  {object}  Response
// @Security     BearerAuth
// @Router       /session/connect [post]
func (h *Handler) connectSession(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req sessionTokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.deps.Sessions.ResolveSession(r.Context(), req.SessionToken, userID, false)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, "session connected", sessionStatusData{
		Status: string(sess.Status),
		UserID: sess.UserID,
	})
}

// endSession handles POST /api/v1/session/end.
//
// @Summary      End a session
// @Description  Terminates the session when the kiosk finishes or the user walks away.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body  sessionTokenRequest  true  "Session token"
// @Success      200  {object}  Response
// @Failure      404  {object}  Response
// @Router       /session/end [post]
func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	var req sessionTokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.deps.Sessions.EndSession(r.Context(), req.SessionToken); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, "session ended", nil)
}
