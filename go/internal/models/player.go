package models

import (
	"strings"
	"unicode"
)

// Position is a roster position.
type Position string

const (
	PositionQB Position = "QB"
	PositionRB Position = "RB"
	PositionWR Position = "WR"
	PositionTE Position = "TE"
)

// Positions lists the draftable positions in display order.
var Positions = []Position{PositionQB, PositionRB, PositionWR, PositionTE}

// ParsePosition normalizes a position string. It reports false for
// positions that are not draftable.
func ParsePosition(s string) (Position, bool) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Positions {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// DraftPlayer is an entry of the reference player pool.
type DraftPlayer struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Position        Position `json:"position"`
	Team            string   `json:"team"`
	ADP             float64  `json:"adp"`
	ProjectedPoints float64  `json:"projected_points"`
	ByeWeek         int      `json:"bye_week,omitempty"`
	Rank            int      `json:"rank,omitempty"`
}

// PlayerIDFromName derives a stable id for players that come without an
// external id: "Ja'Marr Chase" -> "jamarr-chase".
func PlayerIDFromName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case r == '\'' || r == '.':
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// EnsureID fills in a derived id when the player has none.
func (p *DraftPlayer) EnsureID() {
	if p.ID == "" {
		p.ID = PlayerIDFromName(p.Name)
	}
}
