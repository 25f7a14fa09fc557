package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fitquest/internal/game/calendar"
)

func TestDay_TruncatesToUTCDate(t *testing.T) {
	pst := time.FixedZone("PST", -8*3600)
	at := time.Date(2026, 1, 31, 20, 30, 0, 0, pst) // 2026-02-01 04:30 UTC
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), calendar.Day(at))
}

func TestNewEntry(t *testing.T) {
	e := calendar.NewEntry(7, time.Date(2026, 5, 4, 13, 0, 0, 0, time.UTC), true)
	assert.Equal(t, int64(7), e.PlayerID)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), e.Day)
	assert.True(t, e.QuestCompleted)
	assert.Zero(t, e.ID)
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0.0, calendar.CompletionRate(nil))
	assert.Equal(t, 0.5, calendar.CompletionRate([]calendar.Entry{{QuestCompleted: true}, {}}))
}

// Property: Day is idempotent and never moves a timestamp forward.
func TestPropertyDayIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sec := rapid.Int64Range(0, 4102444800).Draw(rt, "unix")
		at := time.Unix(sec, 0)
		d := calendar.Day(at)
		if !calendar.Day(d).Equal(d) {
			rt.Fatalf("Day not idempotent for %v", at)
		}
		if d.After(at) {
			rt.Fatalf("Day(%v) = %v is after input", at, d)
		}
		if at.Sub(d) >= 24*time.Hour {
			rt.Fatalf("Day(%v) = %v is more than a day earlier", at, d)
		}
	})
}
