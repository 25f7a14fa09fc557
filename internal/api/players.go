package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fitquest/internal/auth"
	"github.com/cory-johannsen/fitquest/internal/game/player"
	"github.com/cory-johannsen/fitquest/internal/game/stats"
	"github.com/cory-johannsen/fitquest/internal/storage/postgres"
)

type createPlayerRequest struct {
	Name          string              `json:"name"`
	Title         string              `json:"title"`
	Questionnaire stats.Questionnaire `json:"questionnaire"`
}

type createPlayerResponse struct {
	Player *player.Player `json:"player"`
	Token  string         `json:"token"`
}

// createPlayer derives the new player's stats from the questionnaire, links
// the player to the caller, and swaps the caller's session for one carrying
// the player id.
func (h *handler) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	built, err := player.Build(req.Name, req.Title, req.Questionnaire)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	claims := claimsFrom(r.Context())
	p, err := h.Players.CreateForUser(r.Context(), claims.UserID, built)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.startSession(r, claims.UserID, &p.ID, sessionRole(claims))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Sessions.Revoke(r.Context(), claims.SessionID); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		h.Logger.Warn("revoking superseded session", zap.Error(err))
	}

	h.Logger.Info("player created",
		zap.Int64("user_id", claims.UserID),
		zap.Int64("player_id", p.ID),
		zap.Int("level", p.Level),
		zap.String("rank", string(p.Rank)),
	)
	writeJSON(w, http.StatusCreated, createPlayerResponse{Player: p, Token: token})
}

func (h *handler) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.Players.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (h *handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Players.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// canManagePlayer reports whether the caller owns the player or is an admin.
func canManagePlayer(c auth.Claims, id int64) bool {
	if c.Role == postgres.RoleAdmin {
		return true
	}
	return c.PlayerID != nil && *c.PlayerID == id
}

func (h *handler) updatePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !canManagePlayer(claimsFrom(r.Context()), id) {
		h.writeError(w, r, errForbidden)
		return
	}
	var req player.Update
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Players.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := p.Apply(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.Players.Save(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) deletePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !canManagePlayer(claimsFrom(r.Context()), id) {
		h.writeError(w, r, errForbidden)
		return
	}
	if err := h.Players.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Logger.Info("player deleted", zap.Int64("player_id", id))
	w.WriteHeader(http.StatusNoContent)
}
