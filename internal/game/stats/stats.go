// Package stats derives a player's RPG statistics, level, and rank from a
// self-reported fitness questionnaire.
//
// Every function in this package is pure and safe for concurrent use.
package stats

// Questionnaire holds the raw answers collected at player creation.
type Questionnaire struct {
	PushUps            int     `json:"pushUps"`
	Squats             int     `json:"squats"`
	Crunches           int     `json:"crunches"`
	RunningMinutes     float64 `json:"runningMinutes"`
	IsSmoker           bool    `json:"isSmoker"`
	DoesAgileSports    bool    `json:"doesAgileSports"`
	HasFastMovements   bool    `json:"hasFastMovements"`
	HasMotivation      bool    `json:"hasMotivation"`
	ExperiencesFatigue bool    `json:"experiencesFatigue"`
}

// Block is the four-dimensional stat vector plus the pool of points the
// player has not yet spent.
type Block struct {
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Endurance    int `json:"endurance"`
	Intelligence int `json:"intelligence"`
	// UnassignedPoints is owned by leveling flows outside derivation; Derive always leaves it at 0.
	UnassignedPoints int `json:"unassignedPoints"`
}

// Total returns the sum of the four derived stats. UnassignedPoints is not counted.
func (b Block) Total() int {
	return b.Strength + b.Agility + b.Endurance + b.Intelligence
}

// Dominates reports whether every derived stat of b is at least the matching stat of other.
func (b Block) Dominates(other Block) bool {
	return b.Strength >= other.Strength &&
		b.Agility >= other.Agility &&
		b.Endurance >= other.Endurance &&
		b.Intelligence >= other.Intelligence
}

// Result is the output of Derive.
type Result struct {
	Stats Block `json:"stats"`
	Level int   `json:"level"`
	Rank  Rank  `json:"rank"`
}

const (
	// bonusPoints is awarded per yes answer and for not smoking.
	bonusPoints = 3
	// statsPerLevel divides the stat total into a level.
	statsPerLevel = 4
)

// ExerciseTier buckets a repetition count into a score in [1,5].
// Thresholds are strict: 41 scores 5, 40 scores 4.
func ExerciseTier(count int) int {
	switch {
	case count > 40:
		return 5
	case count > 30:
		return 4
	case count > 20:
		return 3
	case count > 10:
		return 2
	default:
		return 1
	}
}

// RunningTier buckets running minutes into a score in [1,5].
// Thresholds are inclusive: 30 minutes scores 5.
func RunningTier(minutes float64) int {
	switch {
	case minutes >= 30:
		return 5
	case minutes >= 20:
		return 4
	case minutes >= 10:
		return 3
	case minutes >= 5:
		return 2
	default:
		return 1
	}
}

// Strength sums the independent tiers of the three exercise counts. Range [3,15].
func Strength(q Questionnaire) int {
	return ExerciseTier(q.PushUps) + ExerciseTier(q.Squats) + ExerciseTier(q.Crunches)
}

// Endurance is the running tier plus a non-smoker bonus. Range [1,8].
func Endurance(q Questionnaire) int {
	e := RunningTier(q.RunningMinutes)
	if !q.IsSmoker {
		e += bonusPoints
	}
	return e
}

// Agility is bonus-only: no baseline, +3 per yes. Range {0,3,6}.
func Agility(q Questionnaire) int {
	a := 0
	if q.DoesAgileSports {
		a += bonusPoints
	}
	if q.HasFastMovements {
		a += bonusPoints
	}
	return a
}

// Intelligence is bonus-only like Agility. Range {0,3,6}.
func Intelligence(q Questionnaire) int {
	i := 0
	if q.HasMotivation {
		i += bonusPoints
	}
	if q.ExperiencesFatigue {
		i += bonusPoints
	}
	return i
}

// LevelFor weighs the four stats equally and floors their mean.
func LevelFor(b Block) int {
	return b.Total() / statsPerLevel
}

// Derive converts a questionnaire into a stat block, level, and rank.
//
// Precondition: q has passed request validation (non-negative counts).
// Postcondition: Stats.UnassignedPoints is 0 and Rank == RankForLevel(Level).
func Derive(q Questionnaire) Result {
	b := Block{
		Strength:     Strength(q),
		Agility:      Agility(q),
		Endurance:    Endurance(q),
		Intelligence: Intelligence(q),
	}
	level := LevelFor(b)
	return Result{
		Stats: b,
		Level: level,
		Rank:  RankForLevel(level),
	}
}
