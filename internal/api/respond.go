package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fitquest/internal/auth"
	"github.com/cory-johannsen/fitquest/internal/game/player"
	"github.com/cory-johannsen/fitquest/internal/game/quest"
	"github.com/cory-johannsen/fitquest/internal/storage/postgres"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequest   = errors.New("bad request")
	errForbidden    = errors.New("forbidden")
	errNoPlayer     = errors.New("create a player first")
	errNotEligible  = errors.New("player does not meet the quest requirements")
	errNotFound     = errors.New("not found")
	errCalendarVoid = errors.New("no calendar entries for this player")
)

// badRequest wraps a client input problem so it maps to 400.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor maps domain and storage errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, player.ErrEmptyName),
		errors.Is(err, player.ErrInvalidLevel),
		errors.Is(err, player.ErrInvalidRank),
		errors.Is(err, player.ErrNegativeValue),
		errors.Is(err, player.ErrNegativeAnswer),
		errors.Is(err, quest.ErrNegativeRequirement),
		errors.Is(err, quest.ErrInvalidKind),
		errors.Is(err, quest.ErrEmptyTitle),
		errors.Is(err, quest.ErrInvalidExercise),
		errors.Is(err, quest.ErrExerciseID):
		return http.StatusBadRequest
	case errors.Is(err, postgres.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenMissing),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden),
		errors.Is(err, errNoPlayer),
		errors.Is(err, errNotEligible):
		return http.StatusForbidden
	case errors.Is(err, errNotFound),
		errors.Is(err, errCalendarVoid),
		errors.Is(err, postgres.ErrUserNotFound),
		errors.Is(err, postgres.ErrPlayerNotFound),
		errors.Is(err, postgres.ErrQuestNotFound),
		errors.Is(err, postgres.ErrExerciseNotFound),
		errors.Is(err, postgres.ErrCalendarEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, postgres.ErrEmailTaken),
		errors.Is(err, postgres.ErrPlayerAlreadyLinked),
		errors.Is(err, postgres.ErrCalendarEntryExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError renders err as {"error": msg}. Internal errors are logged and
// their detail withheld from the client.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}
