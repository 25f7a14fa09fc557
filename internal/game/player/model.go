// Package player defines the player character model and its pure creation
// and progression logic.
package player

import (
	"errors"
	"time"

	"github.com/cory-johannsen/fitquest/internal/game/stats"
)

var (
	// ErrEmptyName is returned when a player name is blank.
	ErrEmptyName = errors.New("player name must not be empty")
	// ErrInvalidLevel is returned for a level below 1.
	ErrInvalidLevel = errors.New("player level must be at least 1")
	// ErrInvalidRank is returned for an unknown rank.
	ErrInvalidRank = errors.New("player rank must be one of E, D, C, B, A, S")
	// ErrNegativeValue is returned for a negative streak or stat.
	ErrNegativeValue = errors.New("player streak and stats must not be negative")
)

// Player is the RPG-style character attached to one user.
//
// ID is set by the persistence layer; zero indicates an unsaved player.
type Player struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Title  string      `json:"title"`
	Level  int         `json:"level"`
	Rank   stats.Rank  `json:"rank"`
	Streak int         `json:"streak"`
	Stats  stats.Block `json:"stats"`

	DailyQuestID     *int64 `json:"dailyQuestId"`
	SecondaryQuestID *int64 `json:"secondaryQuestId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecordDailyResult advances the streak when the daily quest was completed.
// A missed day leaves the streak where it is.
func (p *Player) RecordDailyResult(completed bool) {
	if completed {
		p.Streak++
	}
}

// Update carries a partial player edit. Nil fields are left unchanged.
//
// Level and Rank are stored as given; they are not recomputed from Stats.
type Update struct {
	Name   *string      `json:"name"`
	Title  *string      `json:"title"`
	Level  *int         `json:"level"`
	Rank   *stats.Rank  `json:"rank"`
	Streak *int         `json:"streak"`
	Stats  *stats.Block `json:"stats"`
}

// Apply merges u into p after validating it.
//
// Postcondition: p is unchanged when an error is returned.
func (p *Player) Apply(u Update) error {
	next := *p
	if u.Name != nil {
		next.Name = *u.Name
	}
	if u.Title != nil {
		next.Title = *u.Title
	}
	if u.Level != nil {
		next.Level = *u.Level
	}
	if u.Rank != nil {
		next.Rank = *u.Rank
	}
	if u.Streak != nil {
		next.Streak = *u.Streak
	}
	if u.Stats != nil {
		next.Stats = *u.Stats
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

// Validate checks the persisted invariants of a player.
func (p *Player) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.Level < 1 {
		return ErrInvalidLevel
	}
	if !p.Rank.Valid() {
		return ErrInvalidRank
	}
	s := p.Stats
	if p.Streak < 0 || s.Strength < 0 || s.Agility < 0 || s.Endurance < 0 ||
		s.Intelligence < 0 || s.UnassignedPoints < 0 {
		return ErrNegativeValue
	}
	return nil
}
