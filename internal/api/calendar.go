package api

import (
	"net/http"
	"time"

	"github.com/cory-johannsen/fitquest/internal/game/calendar"
	"github.com/cory-johannsen/fitquest/internal/storage/postgres"
)

type calendarResponse struct {
	PlayerID       int64            `json:"playerId"`
	Entries        []calendar.Entry `json:"entries"`
	CompletionRate float64          `json:"completionRate"`
}

func newCalendarResponse(playerID int64, entries []calendar.Entry) calendarResponse {
	return calendarResponse{
		PlayerID:       playerID,
		Entries:        entries,
		CompletionRate: calendar.CompletionRate(entries),
	}
}

func (h *handler) listCalendar(w http.ResponseWriter, r *http.Request) {
	id := playerID(r.Context())
	entries, err := h.Calendar.ListByPlayer(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalendarResponse(id, entries))
}

type createCalendarRequest struct {
	Date           *time.Time `json:"date"`
	QuestCompleted *bool      `json:"questCompleted"`
}

func (h *handler) createCalendarEntry(w http.ResponseWriter, r *http.Request) {
	var req createCalendarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Date == nil || req.QuestCompleted == nil {
		h.writeError(w, r, badRequest("date and questCompleted are required"))
		return
	}
	entry, err := h.Calendar.Create(r.Context(), calendar.NewEntry(playerID(r.Context()), *req.Date, *req.QuestCompleted))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *handler) playerCalendar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "playerID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, err := h.Calendar.ListByPlayer(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(entries) == 0 {
		h.writeError(w, r, errCalendarVoid)
		return
	}
	writeJSON(w, http.StatusOK, newCalendarResponse(id, entries))
}

func (h *handler) deleteCalendarEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entry, err := h.Calendar.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !canManagePlayer(claimsFrom(r.Context()), entry.PlayerID) {
		h.writeError(w, r, postgres.ErrCalendarEntryNotFound)
		return
	}
	if err := h.Calendar.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
