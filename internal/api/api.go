// Package api exposes users, players, quests, and the calendar over an HTTP
// JSON API routed with chi.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fitquest/internal/auth"
	"github.com/cory-johannsen/fitquest/internal/game/calendar"
	"github.com/cory-johannsen/fitquest/internal/game/player"
	"github.com/cory-johannsen/fitquest/internal/game/quest"
	"github.com/cory-johannsen/fitquest/internal/observability"
	"github.com/cory-johannsen/fitquest/internal/storage/postgres"
)

// UserStore persists login identities.
type UserStore interface {
	Create(ctx context.Context, email, password string) (postgres.User, error)
	Authenticate(ctx context.Context, email, password string) (postgres.User, error)
	GetByID(ctx context.Context, id int64) (postgres.User, error)
	List(ctx context.Context) ([]postgres.User, error)
	UpdateEmail(ctx context.Context, id int64, email string) error
	ChangePassword(ctx context.Context, id int64, current, next string) error
}

// PlayerStore persists player characters.
type PlayerStore interface {
	CreateForUser(ctx context.Context, userID int64, p *player.Player) (*player.Player, error)
	GetByID(ctx context.Context, id int64) (*player.Player, error)
	List(ctx context.Context) ([]*player.Player, error)
	Save(ctx context.Context, p *player.Player) (*player.Player, error)
	Delete(ctx context.Context, id int64) error
	RecordDailyResult(ctx context.Context, playerID int64, day time.Time, completed bool) (*player.Player, error)
}

// QuestStore persists quests and their exercises. Create also makes the
// quest its player's current quest of that kind.
type QuestStore interface {
	Create(ctx context.Context, q *quest.Quest) (*quest.Quest, error)
	GetByID(ctx context.Context, id int64) (*quest.Quest, error)
	ListByPlayer(ctx context.Context, playerID int64) ([]*quest.Quest, error)
	ListAll(ctx context.Context) ([]*quest.Quest, error)
	Save(ctx context.Context, q *quest.Quest) (*quest.Quest, error)
	SetExerciseDone(ctx context.Context, questID int64, exerciseID string, done bool) (*quest.Quest, error)
	Delete(ctx context.Context, id int64) error
}

// CalendarStore persists per-day completion records.
type CalendarStore interface {
	Create(ctx context.Context, e calendar.Entry) (calendar.Entry, error)
	Upsert(ctx context.Context, e calendar.Entry) (calendar.Entry, error)
	GetByID(ctx context.Context, id int64) (calendar.Entry, error)
	ListByPlayer(ctx context.Context, playerID int64) ([]calendar.Entry, error)
	Delete(ctx context.Context, id int64) error
}

// SessionStore tracks live sessions so tokens can be revoked.
type SessionStore interface {
	Start(ctx context.Context, c auth.Claims) error
	Verify(ctx context.Context, c auth.Claims) error
	Revoke(ctx context.Context, sessionID string) error
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	Users    UserStore
	Players  PlayerStore
	Quests   QuestStore
	Calendar CalendarStore
	Sessions SessionStore
	Tokens   *auth.Issuer
	Catalog  *quest.Catalog
	DB       HealthChecker
	Logger   *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type handler struct {
	Deps
}

// NewRouter builds the HTTP handler for the whole API.
//
// Precondition: every field of deps except Now must be non-nil.
func NewRouter(deps Deps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := &handler{Deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)
			r.Post("/logout", h.logout)
			r.Put("/profile", h.updateProfile)
			r.Put("/change-password", h.changePassword)
			r.With(requireAdmin).Get("/", h.listUsers)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Route("/players", func(r chi.Router) {
			r.Post("/", h.createPlayer)
			r.Get("/", h.listPlayers)
			r.Get("/{id}", h.getPlayer)
			r.Put("/{id}", h.updatePlayer)
			r.Delete("/{id}", h.deletePlayer)
		})

		r.Route("/quests", func(r chi.Router) {
			r.With(requireAdmin).Get("/all", h.listAllQuests)
			r.Group(func(r chi.Router) {
				r.Use(requirePlayer)
				r.Get("/", h.listQuests)
				r.Post("/", h.createQuest)
				r.Get("/catalog", h.listCatalog)
				r.Post("/catalog/{templateID}/accept", h.acceptTemplate)
				r.Put("/{id}", h.updateQuest)
				r.Put("/{id}/exercises/{exerciseID}", h.setExerciseDone)
				r.Delete("/{id}", h.deleteQuest)
				r.Post("/{id}/check", h.checkQuest)
			})
		})

		r.Route("/calendar", func(r chi.Router) {
			r.With(requirePlayer).Get("/", h.listCalendar)
			r.With(requirePlayer).Post("/", h.createCalendarEntry)
			r.Get("/{playerID}", h.playerCalendar)
			r.Delete("/{id}", h.deleteCalendarEntry)
		})
	})

	return r
}

const healthTimeout = 2 * time.Second

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Health(r.Context(), healthTimeout); err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
