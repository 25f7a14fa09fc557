package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fitquest/internal/game/calendar"
	"github.com/cory-johannsen/fitquest/internal/game/quest"
	"github.com/cory-johannsen/fitquest/internal/storage/postgres"
)

func (h *handler) listQuests(w http.ResponseWriter, r *http.Request) {
	quests, err := h.Quests.ListByPlayer(r.Context(), playerID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quests)
}

func (h *handler) listAllQuests(w http.ResponseWriter, r *http.Request) {
	quests, err := h.Quests.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quests)
}

type createQuestRequest struct {
	Kind         quest.Kind         `json:"kind"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Date         *time.Time         `json:"date"`
	Requirements quest.Requirements `json:"requirements"`
	Exercises    []quest.Exercise   `json:"exercises"`
}

// admit stores q for the caller, as the caller's current quest of its kind,
// if the caller's stats satisfy its requirements. Exercise ids are always
// assigned here; ids in the request are ignored.
func (h *handler) admit(r *http.Request, q *quest.Quest) (*quest.Quest, error) {
	p, err := h.Players.GetByID(r.Context(), q.PlayerID)
	if err != nil {
		return nil, err
	}
	if !quest.IsEligible(p.Stats, q.Requirements) {
		return nil, errNotEligible
	}
	q.AssignExerciseIDs()
	created, err := h.Quests.Create(r.Context(), q)
	if err != nil {
		return nil, err
	}
	h.Logger.Info("quest accepted",
		zap.Int64("player_id", p.ID),
		zap.Int64("quest_id", created.ID),
		zap.String("kind", string(created.Kind)),
	)
	return created, nil
}

func (h *handler) createQuest(w http.ResponseWriter, r *http.Request) {
	var req createQuestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	date := h.Now()
	if req.Date != nil {
		date = *req.Date
	}
	q := &quest.Quest{
		PlayerID:     playerID(r.Context()),
		Kind:         req.Kind,
		Title:        req.Title,
		Description:  req.Description,
		Date:         date,
		Requirements: req.Requirements,
		Exercises:    req.Exercises,
	}
	if err := q.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.admit(r, q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type catalogEntry struct {
	*quest.Template
	Eligible bool `json:"eligible"`
}

func (h *handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	p, err := h.Players.GetByID(r.Context(), playerID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	templates := h.Catalog.All()
	entries := make([]catalogEntry, 0, len(templates))
	for _, t := range templates {
		entries = append(entries, catalogEntry{
			Template: t,
			Eligible: quest.IsEligible(p.Stats, t.Requirements),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) acceptTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := h.Catalog.Get(chi.URLParam(r, "templateID"))
	if !ok {
		h.writeError(w, r, errNotFound)
		return
	}
	created, err := h.admit(r, t.Instantiate(playerID(r.Context()), h.Now()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ownedQuest loads the quest named in the path. Quests of other players are
// reported as not found.
func (h *handler) ownedQuest(r *http.Request) (*quest.Quest, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	q, err := h.Quests.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if q.PlayerID != playerID(r.Context()) {
		return nil, postgres.ErrQuestNotFound
	}
	return q, nil
}

func (h *handler) updateQuest(w http.ResponseWriter, r *http.Request) {
	q, err := h.ownedQuest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req quest.Update
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := q.Apply(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.Quests.Save(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type exerciseDoneRequest struct {
	Done *bool `json:"done"`
}

func (h *handler) setExerciseDone(w http.ResponseWriter, r *http.Request) {
	q, err := h.ownedQuest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req exerciseDoneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Done == nil {
		h.writeError(w, r, badRequest("field done must be a boolean"))
		return
	}
	updated, err := h.Quests.SetExerciseDone(r.Context(), q.ID, chi.URLParam(r, "exerciseID"), *req.Done)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteQuest(w http.ResponseWriter, r *http.Request) {
	q, err := h.ownedQuest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Quests.Delete(r.Context(), q.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkResponse struct {
	QuestCompleted bool           `json:"questCompleted"`
	Entry          calendar.Entry `json:"entry"`
	Streak         *int           `json:"streak,omitempty"`
}

// checkQuest records today's result for the quest in the calendar. A daily
// quest also advances the streak, at most once per day.
func (h *handler) checkQuest(w http.ResponseWriter, r *http.Request) {
	q, err := h.ownedQuest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	completed := q.Completed()
	now := h.Now()

	entry, err := h.Calendar.Upsert(r.Context(), calendar.NewEntry(q.PlayerID, now, completed))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := checkResponse{QuestCompleted: completed, Entry: entry}

	if q.Kind == quest.KindDaily {
		p, err := h.Players.RecordDailyResult(r.Context(), q.PlayerID, now, completed)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		resp.Streak = &p.Streak
	}
	writeJSON(w, http.StatusOK, resp)
}
