package api

import (
	"net/http"
	"time"

	"github.com/trash2cash/station-platform/pkg/auth"
	"github.com/trash2cash/station-platform/pkg/user"
)

// registerRequest carries a new account registration.
type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest carries login credentials.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userData describes a user account on the wire.
type userData struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	JoinedAt string `json:"joined_at"`
}

// loginData is returned on successful login.
type loginData struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// profileData is the authenticated user plus their balance in rupiah.
type profileData struct {
	User    userData `json:"user"`
	Balance int64    `json:"balance"`
}

func toUserData(u *user.User) userData {
	return userData{
		ID:       u.ID,
		FullName: u.Name,
		Email:    u.Email,
		JoinedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// register handles POST /api/v1/auth/register.
//
// @Summary      Register an account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  registerRequest  true  "Account details"
// @Success      200  {object}  Response{data=userData}
// @Failure      400  {object}  Response
// @Failure      409  {object}  Response
// @Router       /auth/register [post]
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.deps.Users.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, "account created", toUserData(u))
}

// login handles POST /api/v1/auth/login.
//
// @Summary      Log in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  loginRequest  true  "Credentials"
// @Success      200  {object}  Response{data=loginData}
// @Failure      401  {object}  Response
// @Router       /auth/login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.deps.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.deps.Tokens.Issue(u.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, "login successful", loginData{ID: u.ID, Token: token})
}

// profile handles GET /api/v1/user/profile.
//
// @Summary      Get the authenticated user's profile
// @Tags         User
// @Produce      json
// @Success      200  {object}  Response{data=profileData}
// @Failure      401  {object}  Response
// @Security     BearerAuth
// @Router       /user/profile [get]
func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	u, err := h.deps.Users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := h.deps.Ledger.Balance(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, "profile", profileData{User: toUserData(u), Balance: balance})
}
