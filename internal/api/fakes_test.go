package api_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/cory-johannsen/fitquest/internal/game/calendar"
	"github.com/cory-johannsen/fitquest/internal/game/player"
	"github.com/cory-johannsen/fitquest/internal/game/quest"
	"github.com/cory-johannsen/fitquest/internal/storage/postgres"
)

// memory is an in-memory stand-in for the PostgreSQL repositories that keeps
// their sentinel-error behaviour.
type memory struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]postgres.User
	passwords map[int64]string
	players   map[int64]*player.Player
	quests    map[int64]*quest.Quest
	entries   map[int64]calendar.Entry

	// counted holds the ids of calendar entries that already advanced a streak.
	counted map[int64]bool
}

func newMemory() *memory {
	return &memory{
		users:     make(map[int64]postgres.User),
		passwords: make(map[int64]string),
		players:   make(map[int64]*player.Player),
		quests:    make(map[int64]*quest.Quest),
		entries:   make(map[int64]calendar.Entry),
		counted:   make(map[int64]bool),
	}
}

func (m *memory) id() int64 {
	m.nextID++
	return m.nextID
}

type memUsers struct{ *memory }

func (m memUsers) Create(_ context.Context, email, password string) (postgres.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = postgres.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return postgres.User{}, postgres.ErrEmailTaken
		}
	}
	u := postgres.User{ID: m.id(), Email: email, Role: postgres.RolePlayer, CreatedAt: time.Now()}
	m.users[u.ID] = u
	m.passwords[u.ID] = password
	return u, nil
}

func (m memUsers) Authenticate(_ context.Context, email, password string) (postgres.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = postgres.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			if m.passwords[u.ID] != password {
				return postgres.User{}, postgres.ErrInvalidCredentials
			}
			return u, nil
		}
	}
	return postgres.User{}, postgres.ErrUserNotFound
}

func (m memUsers) GetByID(_ context.Context, id int64) (postgres.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return postgres.User{}, postgres.ErrUserNotFound
	}
	return u, nil
}

func (m memUsers) List(context.Context) ([]postgres.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]postgres.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b postgres.User) int { return int(a.ID - b.ID) })
	return users, nil
}

func (m memUsers) UpdateEmail(_ context.Context, id int64, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = postgres.NormalizeEmail(email)
	u, ok := m.users[id]
	if !ok {
		return postgres.ErrUserNotFound
	}
	for _, other := range m.users {
		if other.ID != id && other.Email == email {
			return postgres.ErrEmailTaken
		}
	}
	u.Email = email
	m.users[id] = u
	return nil
}

func (m memUsers) ChangePassword(_ context.Context, id int64, current, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return postgres.ErrUserNotFound
	}
	if m.passwords[id] != current {
		return postgres.ErrInvalidCredentials
	}
	m.passwords[id] = next
	return nil
}

func (m memUsers) setRole(id int64, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.Role = role
	m.users[id] = u
}

type memPlayers struct{ *memory }

func clonePlayer(p *player.Player) *player.Player {
	c := *p
	return &c
}

func (m memPlayers) CreateForUser(_ context.Context, userID int64, p *player.Player) (*player.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, postgres.ErrUserNotFound
	}
	if u.PlayerID != nil {
		return nil, postgres.ErrPlayerAlreadyLinked
	}
	stored := clonePlayer(p)
	stored.ID = m.id()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.players[stored.ID] = stored
	id := stored.ID
	u.PlayerID = &id
	m.users[userID] = u
	return clonePlayer(stored), nil
}

func (m memPlayers) GetByID(_ context.Context, id int64) (*player.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, postgres.ErrPlayerNotFound
	}
	return clonePlayer(p), nil
}

func (m memPlayers) List(context.Context) ([]*player.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	players := make([]*player.Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, clonePlayer(p))
	}
	slices.SortFunc(players, func(a, b *player.Player) int { return int(a.ID - b.ID) })
	return players, nil
}

func (m memPlayers) Save(_ context.Context, p *player.Player) (*player.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[p.ID]; !ok {
		return nil, postgres.ErrPlayerNotFound
	}
	stored := clonePlayer(p)
	stored.UpdatedAt = time.Now()
	m.players[p.ID] = stored
	return clonePlayer(stored), nil
}

func (m memPlayers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[id]; !ok {
		return postgres.ErrPlayerNotFound
	}
	delete(m.players, id)
	for uid, u := range m.users {
		if u.PlayerID != nil && *u.PlayerID == id {
			u.PlayerID = nil
			m.users[uid] = u
		}
	}
	for qid, q := range m.quests {
		if q.PlayerID == id {
			delete(m.quests, qid)
		}
	}
	for eid, e := range m.entries {
		if e.PlayerID == id {
			delete(m.entries, eid)
		}
	}
	return nil
}

func (m memPlayers) RecordDailyResult(_ context.Context, playerID int64, day time.Time, completed bool) (*player.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return nil, postgres.ErrPlayerNotFound
	}
	if completed {
		e, ok := memCalendar{m.memory}.findDay(playerID, day)
		if ok && !m.counted[e.ID] {
			m.counted[e.ID] = true
			p.RecordDailyResult(true)
		}
	}
	return clonePlayer(p), nil
}

type memQuests struct{ *memory }

func cloneQuest(q *quest.Quest) *quest.Quest {
	c := *q
	c.Exercises = append([]quest.Exercise{}, q.Exercises...)
	return &c
}

func (m memQuests) Create(_ context.Context, q *quest.Quest) (*quest.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[q.PlayerID]; !ok {
		return nil, postgres.ErrPlayerNotFound
	}
	stored := cloneQuest(q)
	stored.ID = m.id()
	stored.CreatedAt = time.Now()
	m.quests[stored.ID] = stored
	id := stored.ID
	if q.Kind == quest.KindSecondary {
		m.players[q.PlayerID].SecondaryQuestID = &id
	} else {
		m.players[q.PlayerID].DailyQuestID = &id
	}
	return cloneQuest(stored), nil
}

func (m memQuests) GetByID(_ context.Context, id int64) (*quest.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quests[id]
	if !ok {
		return nil, postgres.ErrQuestNotFound
	}
	return cloneQuest(q), nil
}

func (m memQuests) filter(keep func(*quest.Quest) bool) []*quest.Quest {
	m.mu.Lock()
	defer m.mu.Unlock()
	quests := make([]*quest.Quest, 0)
	for _, q := range m.quests {
		if keep(q) {
			quests = append(quests, cloneQuest(q))
		}
	}
	slices.SortFunc(quests, func(a, b *quest.Quest) int { return int(a.ID - b.ID) })
	return quests
}

func (m memQuests) ListByPlayer(_ context.Context, playerID int64) ([]*quest.Quest, error) {
	return m.filter(func(q *quest.Quest) bool { return q.PlayerID == playerID }), nil
}

func (m memQuests) ListAll(context.Context) ([]*quest.Quest, error) {
	return m.filter(func(*quest.Quest) bool { return true }), nil
}

func (m memQuests) Save(_ context.Context, q *quest.Quest) (*quest.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quests[q.ID]; !ok {
		return nil, postgres.ErrQuestNotFound
	}
	m.quests[q.ID] = cloneQuest(q)
	return cloneQuest(q), nil
}

func (m memQuests) SetExerciseDone(_ context.Context, questID int64, exerciseID string, done bool) (*quest.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quests[questID]
	if !ok {
		return nil, postgres.ErrQuestNotFound
	}
	for i := range q.Exercises {
		if q.Exercises[i].ID == exerciseID {
			q.Exercises[i].Done = done
			return cloneQuest(q), nil
		}
	}
	return nil, postgres.ErrExerciseNotFound
}

func (m memQuests) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quests[id]; !ok {
		return postgres.ErrQuestNotFound
	}
	delete(m.quests, id)
	for _, p := range m.players {
		if p.DailyQuestID != nil && *p.DailyQuestID == id {
			p.DailyQuestID = nil
		}
		if p.SecondaryQuestID != nil && *p.SecondaryQuestID == id {
			p.SecondaryQuestID = nil
		}
	}
	return nil
}

type memCalendar struct{ *memory }

func (m memCalendar) findDay(playerID int64, day time.Time) (calendar.Entry, bool) {
	for _, e := range m.entries {
		if e.PlayerID == playerID && e.Day.Equal(calendar.Day(day)) {
			return e, true
		}
	}
	return calendar.Entry{}, false
}

func (m memCalendar) Create(_ context.Context, e calendar.Entry) (calendar.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[e.PlayerID]; !ok {
		return calendar.Entry{}, postgres.ErrPlayerNotFound
	}
	if _, ok := m.findDay(e.PlayerID, e.Day); ok {
		return calendar.Entry{}, postgres.ErrCalendarEntryExists
	}
	e.ID = m.id()
	e.Day = calendar.Day(e.Day)
	m.entries[e.ID] = e
	return e, nil
}

func (m memCalendar) Upsert(_ context.Context, e calendar.Entry) (calendar.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.findDay(e.PlayerID, e.Day); ok {
		existing.QuestCompleted = e.QuestCompleted
		m.entries[existing.ID] = existing
		return existing, nil
	}
	e.ID = m.id()
	e.Day = calendar.Day(e.Day)
	m.entries[e.ID] = e
	return e, nil
}

func (m memCalendar) GetByID(_ context.Context, id int64) (calendar.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return calendar.Entry{}, postgres.ErrCalendarEntryNotFound
	}
	return e, nil
}

func (m memCalendar) ListByPlayer(_ context.Context, playerID int64) ([]calendar.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]calendar.Entry, 0)
	for _, e := range m.entries {
		if e.PlayerID == playerID {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b calendar.Entry) int { return a.Day.Compare(b.Day) })
	return entries, nil
}

func (m memCalendar) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return postgres.ErrCalendarEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

type fakeDB struct{ err error }

func (f fakeDB) Health(context.Context, time.Duration) error { return f.err }

var errDown = errors.New("connection refused")
