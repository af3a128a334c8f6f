package models

// PositionLimit bounds how many players of a position a roster may hold.
// A zero Max means unlimited.
type PositionLimit struct {
	Min         int `json:"min" yaml:"min"`
	Max         int `json:"max" yaml:"max"`
	Recommended int `json:"recommended" yaml:"recommended"`
}

// RosterLimits maps positions to their limits.
type RosterLimits map[Position]PositionLimit

// DefaultRosterLimits returns best ball construction limits for an 18 man roster.
func DefaultRosterLimits() RosterLimits {
	return RosterLimits{
		PositionQB: {Min: 1, Max: 4, Recommended: 3},
		PositionRB: {Min: 2, Max: 8, Recommended: 6},
		PositionWR: {Min: 3, Max: 10, Recommended: 7},
		PositionTE: {Min: 1, Max: 4, Recommended: 2},
	}
}

// Allows reports whether another player of pos fits given the current counts.
func (l RosterLimits) Allows(pos Position, counts PositionCounts) bool {
	limit, ok := l[pos]
	if !ok || limit.Max <= 0 {
		return true
	}
	return counts[pos] < limit.Max
}

// PositionCounts maps a position to how many players of it a roster holds.
type PositionCounts map[Position]int

// CountPositions tallies players by position.
func CountPositions(players []DraftPlayer) PositionCounts {
	counts := make(PositionCounts, len(Positions))
	for _, p := range players {
		counts[p.Position]++
	}
	return counts
}
