package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fitquest/internal/auth"
	"github.com/cory-johannsen/fitquest/internal/storage/postgres"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return badRequest("invalid email %q", email)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return badRequest("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > 72 {
		return badRequest("password must be at most 72 bytes")
	}
	return nil
}

// startSession issues a token for the user and records its session.
func (h *handler) startSession(r *http.Request, userID int64, playerID *int64, role string) (string, error) {
	token, claims, err := h.Tokens.Issue(userID, playerID, role)
	if err != nil {
		return "", err
	}
	if err := h.Sessions.Start(r.Context(), claims); err != nil {
		return "", err
	}
	return token, nil
}

type registerResponse struct {
	UserID int64  `json:"userId"`
	Token  string `json:"token"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateEmail(req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.Users.Create(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.startSession(r, u.ID, nil, u.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Logger.Info("user registered", zap.Int64("user_id", u.ID))
	writeJSON(w, http.StatusCreated, registerResponse{UserID: u.ID, Token: token})
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.startSession(r, u.ID, u.PlayerID, u.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Revoke(r.Context(), claimsFrom(r.Context()).SessionID); err != nil &&
		!errors.Is(err, auth.ErrSessionNotFound) {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type profileRequest struct {
	Email string `json:"email"`
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateEmail(req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := claimsFrom(r.Context()).UserID
	if err := h.Users.UpdateEmail(r.Context(), userID, req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Users.ChangePassword(r.Context(), claimsFrom(r.Context()).UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// sessionRole is used where a handler re-issues a token for the caller.
func sessionRole(c auth.Claims) string {
	if c.Role == "" {
		return postgres.RolePlayer
	}
	return c.Role
}
