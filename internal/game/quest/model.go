// Package quest defines quests, their exercises, the stat-gated eligibility
// rule, and the YAML quest catalog.
package quest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the player's daily quest from optional side quests.
type Kind string

const (
	KindDaily     Kind = "daily"
	KindSecondary Kind = "secondary"
)

// Valid reports whether k is a known quest kind.
func (k Kind) Valid() bool {
	return k == KindDaily || k == KindSecondary
}

var (
	// ErrNegativeRequirement is returned when a stat threshold is below zero.
	ErrNegativeRequirement = errors.New("quest requirements must not be negative")
	// ErrInvalidKind is returned for a kind other than daily or secondary.
	ErrInvalidKind = errors.New("quest kind must be daily or secondary")
	// ErrEmptyTitle is returned when a quest has no title.
	ErrEmptyTitle = errors.New("quest title must not be empty")
	// ErrInvalidExercise is returned for an exercise without a name or with a negative quantity.
	ErrInvalidExercise = errors.New("exercise needs a name and a non-negative quantity")
	// ErrExerciseID is returned when an edit repeats an exercise id or names
	// one the quest does not have.
	ErrExerciseID = errors.New("exercise id must be unique and belong to the quest")
)

// Exercise is one line item of a quest.
type Exercise struct {
	ID       string `json:"id"`
	Name     string `json:"name" yaml:"name"`
	Quantity int    `json:"quantity" yaml:"quantity"`
	Done     bool   `json:"done"`
}

// Quest is a bundle of exercises owned by one player.
//
// ID is set by the persistence layer; zero indicates an unsaved quest.
type Quest struct {
	ID           int64        `json:"id"`
	PlayerID     int64        `json:"playerId"`
	Kind         Kind         `json:"kind"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Date         time.Time    `json:"date"`
	Requirements Requirements `json:"requirements"`
	Exercises    []Exercise   `json:"exercises"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Completed reports whether every exercise is done. A quest without exercises is complete.
func (q Quest) Completed() bool {
	for _, e := range q.Exercises {
		if !e.Done {
			return false
		}
	}
	return true
}

// Validate checks the fields a caller can supply.
func (q Quest) Validate() error {
	if !q.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(q.Title) == "" {
		return ErrEmptyTitle
	}
	if err := q.Requirements.Validate(); err != nil {
		return err
	}
	for i, e := range q.Exercises {
		if strings.TrimSpace(e.Name) == "" || e.Quantity < 0 {
			return fmt.Errorf("exercise %d: %w", i, ErrInvalidExercise)
		}
	}
	return nil
}

// AssignExerciseIDs gives every exercise a fresh UUID, discarding any id the
// caller supplied.
func (q *Quest) AssignExerciseIDs() {
	for i := range q.Exercises {
		q.Exercises[i].ID = uuid.NewString()
	}
}

// Update carries a partial quest edit. Nil fields are left unchanged.
// Kind and Requirements are fixed once the quest has been admitted.
type Update struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Date        *time.Time  `json:"date"`
	Exercises   *[]Exercise `json:"exercises"`
}

// Apply merges u into q and validates the result.
//
// An exercise in u keeps its id only if q already has it; an exercise without
// an id is new and gets a fresh one.
//
// Postcondition: q is unchanged when an error is returned.
func (q *Quest) Apply(u Update) error {
	next := *q
	if u.Title != nil {
		next.Title = *u.Title
	}
	if u.Description != nil {
		next.Description = *u.Description
	}
	if u.Date != nil {
		next.Date = *u.Date
	}
	if u.Exercises != nil {
		exercises, err := q.mergeExercises(*u.Exercises)
		if err != nil {
			return err
		}
		next.Exercises = exercises
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*q = next
	return nil
}

func (q *Quest) mergeExercises(in []Exercise) ([]Exercise, error) {
	known := make(map[string]bool, len(q.Exercises))
	for _, e := range q.Exercises {
		known[e.ID] = true
	}
	seen := make(map[string]bool, len(in))
	out := make([]Exercise, len(in))
	for i, e := range in {
		switch {
		case e.ID == "":
			e.ID = uuid.NewString()
		case !known[e.ID] || seen[e.ID]:
			return nil, fmt.Errorf("exercise %d (%q): %w", i, e.ID, ErrExerciseID)
		}
		seen[e.ID] = true
		out[i] = e
	}
	return out, nil
}
