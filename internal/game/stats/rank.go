package stats

import "fmt"

// Rank is the six-step ordinal classification derived from level.
type Rank string

const (
	RankE Rank = "E"
	RankD Rank = "D"
	RankC Rank = "C"
	RankB Rank = "B"
	RankA Rank = "A"
	RankS Rank = "S"
)

// rankThresholds is ordered highest first; each entry is an inclusive lower bound.
var rankThresholds = []struct {
	minLevel int
	rank     Rank
}{
	{50, RankS},
	{40, RankA},
	{30, RankB},
	{20, RankC},
	{10, RankD},
}

// RankForLevel maps a level to its rank. Ties resolve upward: level 50 is S.
func RankForLevel(level int) Rank {
	for _, t := range rankThresholds {
		if level >= t.minLevel {
			return t.rank
		}
	}
	return RankE
}

// Ranks returns every rank from lowest to highest.
func Ranks() []Rank {
	return []Rank{RankE, RankD, RankC, RankB, RankA, RankS}
}

// Ordinal returns the zero-based position of r in Ranks, or -1 for an unknown rank.
func (r Rank) Ordinal() int {
	for i, known := range Ranks() {
		if r == known {
			return i
		}
	}
	return -1
}

// Valid reports whether r is one of the six known ranks.
func (r Rank) Valid() bool {
	return r.Ordinal() >= 0
}

// ParseRank converts a string into a Rank.
//
// Postcondition: Returns a valid Rank or a non-nil error.
func ParseRank(s string) (Rank, error) {
	r := Rank(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown rank %q", s)
	}
	return r, nil
}
