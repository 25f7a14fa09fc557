package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fitquest/internal/game/stats"
)

func TestExerciseTier_Boundaries(t *testing.T) {
	cases := map[int]int{
		0: 1, 10: 1, 11: 2, 20: 2, 21: 3,
		30: 3, 31: 4, 40: 4, 41: 5, 500: 5,
	}
	for count, want := range cases {
		assert.Equal(t, want, stats.ExerciseTier(count), "ExerciseTier(%d)", count)
	}
}

func TestRunningTier_Boundaries(t *testing.T) {
	cases := map[float64]int{
		0: 1, 4.99: 1, 5: 2, 9.5: 2, 10: 3,
		19.99: 3, 20: 4, 29: 4, 30: 5, 120: 5,
	}
	for minutes, want := range cases {
		assert.Equal(t, want, stats.RunningTier(minutes), "RunningTier(%v)", minutes)
	}
}

func TestDerive_AllMaxed(t *testing.T) {
	got := stats.Derive(stats.Questionnaire{
		PushUps: 45, Squats: 45, Crunches: 45,
		RunningMinutes:     35,
		IsSmoker:           false,
		DoesAgileSports:    true,
		HasFastMovements:   true,
		HasMotivation:      true,
		ExperiencesFatigue: true,
	})

	assert.Equal(t, 15, got.Stats.Strength)
	assert.Equal(t, 8, got.Stats.Endurance)
	assert.Equal(t, 6, got.Stats.Agility)
	assert.Equal(t, 6, got.Stats.Intelligence)
	assert.Equal(t, 35, got.Stats.Total())
	assert.Equal(t, 8, got.Level)
	assert.Equal(t, stats.RankE, got.Rank)
	assert.Equal(t, 0, got.Stats.UnassignedPoints)
}

func TestDerive_AllMinimal(t *testing.T) {
	got := stats.Derive(stats.Questionnaire{IsSmoker: true})

	assert.Equal(t, 3, got.Stats.Strength)
	assert.Equal(t, 1, got.Stats.Endurance)
	assert.Equal(t, 0, got.Stats.Agility)
	assert.Equal(t, 0, got.Stats.Intelligence)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, stats.RankE, got.Rank)
}

func TestDerive_NonSmokerBonus(t *testing.T) {
	smoker := stats.Derive(stats.Questionnaire{RunningMinutes: 12, IsSmoker: true})
	nonSmoker := stats.Derive(stats.Questionnaire{RunningMinutes: 12})
	assert.Equal(t, 3, smoker.Stats.Endurance)
	assert.Equal(t, 6, nonSmoker.Stats.Endurance)
}

func TestDerive_ExercisesScoredIndependently(t *testing.T) {
	got := stats.Derive(stats.Questionnaire{PushUps: 41, Squats: 0, Crunches: 25})
	assert.Equal(t, 5+1+3, got.Stats.Strength)
}

func TestDerive_BonusOnlyStats(t *testing.T) {
	got := stats.Derive(stats.Questionnaire{DoesAgileSports: true, ExperiencesFatigue: true})
	assert.Equal(t, 3, got.Stats.Agility)
	assert.Equal(t, 3, got.Stats.Intelligence)
}

func TestLevelFor_FloorsAndIgnoresPool(t *testing.T) {
	assert.Equal(t, 1, stats.LevelFor(stats.Block{Strength: 7}))
	assert.Equal(t, 2, stats.LevelFor(stats.Block{Strength: 8}))
	assert.Equal(t, 0, stats.LevelFor(stats.Block{UnassignedPoints: 400}))
}

func TestRankForLevel_Boundaries(t *testing.T) {
	cases := map[int]stats.Rank{
		0: stats.RankE, 9: stats.RankE,
		10: stats.RankD, 19: stats.RankD,
		20: stats.RankC, 29: stats.RankC,
		30: stats.RankB, 39: stats.RankB,
		40: stats.RankA, 49: stats.RankA,
		50: stats.RankS, 1000: stats.RankS,
	}
	for level, want := range cases {
		assert.Equal(t, want, stats.RankForLevel(level), "RankForLevel(%d)", level)
	}
}

func TestRank_ViaStatBlock(t *testing.T) {
	fifty := stats.Block{Strength: 50, Agility: 50, Endurance: 50, Intelligence: 50}
	assert.Equal(t, stats.RankS, stats.RankForLevel(stats.LevelFor(fifty)))

	fortyNine := stats.Block{Strength: 49, Agility: 49, Endurance: 49, Intelligence: 49}
	assert.Equal(t, stats.RankA, stats.RankForLevel(stats.LevelFor(fortyNine)))
}

func TestParseRank(t *testing.T) {
	for _, r := range stats.Ranks() {
		got, err := stats.ParseRank(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := stats.ParseRank("F")
	assert.Error(t, err)
	_, err = stats.ParseRank("")
	assert.Error(t, err)
}

func TestBlockDominates(t *testing.T) {
	a := stats.Block{Strength: 5, Agility: 3, Endurance: 4, Intelligence: 0}
	assert.True(t, a.Dominates(a))
	assert.True(t, stats.Block{Strength: 6, Agility: 3, Endurance: 4}.Dominates(a))
	assert.False(t, stats.Block{Strength: 6, Agility: 2, Endurance: 9}.Dominates(a))
}

func genQuestionnaire() *rapid.Generator[stats.Questionnaire] {
	return rapid.Custom(func(t *rapid.T) stats.Questionnaire {
		return stats.Questionnaire{
			PushUps:            rapid.IntRange(0, 200).Draw(t, "pushUps"),
			Squats:             rapid.IntRange(0, 200).Draw(t, "squats"),
			Crunches:           rapid.IntRange(0, 200).Draw(t, "crunches"),
			RunningMinutes:     rapid.Float64Range(0, 180).Draw(t, "runningMinutes"),
			IsSmoker:           rapid.Bool().Draw(t, "isSmoker"),
			DoesAgileSports:    rapid.Bool().Draw(t, "doesAgileSports"),
			HasFastMovements:   rapid.Bool().Draw(t, "hasFastMovements"),
			HasMotivation:      rapid.Bool().Draw(t, "hasMotivation"),
			ExperiencesFatigue: rapid.Bool().Draw(t, "experiencesFatigue"),
		}
	})
}

// Property: ExerciseTier is monotonic non-decreasing and bounded to [1,5].
func TestPropertyExerciseTierMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(0, 1000).Draw(rt, "a")
		b := rapid.IntRange(a, 1001).Draw(rt, "b")
		ta, tb := stats.ExerciseTier(a), stats.ExerciseTier(b)
		if ta > tb {
			rt.Fatalf("tier(%d)=%d > tier(%d)=%d", a, ta, b, tb)
		}
		if ta < 1 || tb > 5 {
			rt.Fatalf("tier out of range: %d, %d", ta, tb)
		}
	})
}

// Property: RunningTier is monotonic non-decreasing.
func TestPropertyRunningTierMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Float64Range(0, 500).Draw(rt, "a")
		b := rapid.Float64Range(a, 501).Draw(rt, "b")
		if stats.RunningTier(a) > stats.RunningTier(b) {
			rt.Fatalf("RunningTier not monotonic between %v and %v", a, b)
		}
	})
}

// Property: every derived stat stays within its documented range.
func TestPropertyDeriveRanges(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		got := stats.Derive(genQuestionnaire().Draw(rt, "q"))
		s := got.Stats
		if s.Strength < 3 || s.Strength > 15 {
			rt.Fatalf("strength %d outside [3,15]", s.Strength)
		}
		if s.Endurance < 1 || s.Endurance > 8 {
			rt.Fatalf("endurance %d outside [1,8]", s.Endurance)
		}
		if s.Agility != 0 && s.Agility != 3 && s.Agility != 6 {
			rt.Fatalf("agility %d not in {0,3,6}", s.Agility)
		}
		if s.Intelligence != 0 && s.Intelligence != 3 && s.Intelligence != 6 {
			rt.Fatalf("intelligence %d not in {0,3,6}", s.Intelligence)
		}
		if s.UnassignedPoints != 0 {
			rt.Fatalf("unassigned points %d, want 0", s.UnassignedPoints)
		}
	})
}

// Property: level is the floored mean and rank is fully determined by level.
func TestPropertyLevelAndRankConsistent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		got := stats.Derive(genQuestionnaire().Draw(rt, "q"))
		if got.Level != got.Stats.Total()/4 {
			rt.Fatalf("level %d != floor(%d/4)", got.Level, got.Stats.Total())
		}
		if got.Rank != stats.RankForLevel(got.Level) {
			rt.Fatalf("rank %s does not match level %d", got.Rank, got.Level)
		}
	})
}

// Property: Derive is deterministic.
func TestPropertyDeriveDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		q := genQuestionnaire().Draw(rt, "q")
		if stats.Derive(q) != stats.Derive(q) {
			rt.Fatalf("Derive(%+v) not deterministic", q)
		}
	})
}

// Property: rank ordinal never decreases as level increases.
func TestPropertyRankMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(0, 200).Draw(rt, "a")
		b := rapid.IntRange(a, 201).Draw(rt, "b")
		if stats.RankForLevel(a).Ordinal() > stats.RankForLevel(b).Ordinal() {
			rt.Fatalf("rank(%d) > rank(%d)", a, b)
		}
	})
}
