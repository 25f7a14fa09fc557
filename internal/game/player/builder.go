package player

import (
	"errors"
	"strings"

	"github.com/cory-johannsen/fitquest/internal/game/stats"
)

// DefaultTitle is given to players created without one.
const DefaultTitle = "Novice"

// ErrNegativeAnswer is returned when a questionnaire count is negative.
var ErrNegativeAnswer = errors.New("questionnaire counts must not be negative")

// ValidateQuestionnaire rejects answers that the stat rules are not defined for.
func ValidateQuestionnaire(q stats.Questionnaire) error {
	if q.PushUps < 0 || q.Squats < 0 || q.Crunches < 0 || q.RunningMinutes < 0 {
		return ErrNegativeAnswer
	}
	return nil
}

// Build constructs a new Player from a name, title, and questionnaire.
// Stats, level, and rank come from stats.Derive; the streak starts at 0 and
// no quests are assigned.
//
// Precondition: name must be non-empty; q must have non-negative counts.
// Postcondition: Returns a Player ready for persistence, or a non-nil error.
func Build(name, title string, q stats.Questionnaire) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if err := ValidateQuestionnaire(q); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}

	derived := stats.Derive(q)
	return &Player{
		Name:   name,
		Title:  title,
		Level:  derived.Level,
		Rank:   derived.Rank,
		Streak: 0,
		Stats:  derived.Stats,
	}, nil
}
