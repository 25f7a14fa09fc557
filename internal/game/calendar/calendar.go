// Package calendar records, per player and per day, whether the quest was completed.
package calendar

import "time"

// Entry is one logged day.
//
// ID is set by the persistence layer; zero indicates an unsaved entry.
type Entry struct {
	ID             int64     `json:"id"`
	PlayerID       int64     `json:"playerId"`
	Day            time.Time `json:"date"`
	QuestCompleted bool      `json:"questCompleted"`
}

// Day truncates t to midnight UTC of its UTC calendar date.
// Two timestamps on the same UTC date share one entry.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewEntry builds an unsaved entry for the day containing at.
func NewEntry(playerID int64, at time.Time, completed bool) Entry {
	return Entry{
		PlayerID:       playerID,
		Day:            Day(at),
		QuestCompleted: completed,
	}
}

// CompletionRate returns the fraction of entries with QuestCompleted set, or 0 for no entries.
func CompletionRate(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	done := 0
	for _, e := range entries {
		if e.QuestCompleted {
			done++
		}
	}
	return float64(done) / float64(len(entries))
}
