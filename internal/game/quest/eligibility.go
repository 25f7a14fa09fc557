package quest

import "github.com/cory-johannsen/fitquest/internal/game/stats"

// Requirements are the minimum stats a player needs to take a quest.
// A zero field is an absent requirement and is always satisfied.
type Requirements struct {
	// MinLevel is stored and reported but not enforced by IsEligible.
	MinLevel        int `json:"minLevel" yaml:"min_level"`
	MinStrength     int `json:"minStrength" yaml:"min_strength"`
	MinAgility      int `json:"minAgility" yaml:"min_agility"`
	MinEndurance    int `json:"minEndurance" yaml:"min_endurance"`
	MinIntelligence int `json:"minIntelligence" yaml:"min_intelligence"`
}

// Validate rejects negative thresholds.
func (r Requirements) Validate() error {
	if r.MinLevel < 0 || r.MinStrength < 0 || r.MinAgility < 0 ||
		r.MinEndurance < 0 || r.MinIntelligence < 0 {
		return ErrNegativeRequirement
	}
	return nil
}

// Minimums returns the thresholds as a stat block.
func (r Requirements) Minimums() stats.Block {
	return stats.Block{
		Strength:     r.MinStrength,
		Agility:      r.MinAgility,
		Endurance:    r.MinEndurance,
		Intelligence: r.MinIntelligence,
	}
}

// IsEligible reports whether s meets every stat minimum in req.
// Comparisons are inclusive, so a block equal to the thresholds is eligible.
func IsEligible(s stats.Block, req Requirements) bool {
	return s.Dominates(req.Minimums())
}
