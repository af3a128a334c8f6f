package ledger

import "github.com/mcdev12/dynasty/go/internal/models"

// views are derived from the pick list and rebuilt lazily after a mutation.
type views struct {
	byRound       map[int][]models.DraftPick
	byParticipant map[string][]models.DraftPick
	picked        map[string]struct{}
}

func (l *Ledger) invalidate() {
	l.views = nil
}

func (l *Ledger) view() *views {
	if l.views != nil {
		return l.views
	}
	v := &views{
		byRound:       make(map[int][]models.DraftPick),
		byParticipant: make(map[string][]models.DraftPick, len(l.participants)),
		picked:        make(map[string]struct{}, len(l.picks)),
	}
	for _, p := range l.picks {
		v.byRound[p.Round] = append(v.byRound[p.Round], p)
		v.byParticipant[p.ParticipantID] = append(v.byParticipant[p.ParticipantID], p)
		v.picked[p.Player.ID] = struct{}{}
	}
	l.views = v
	return v
}

// ByRound groups picks by round. The returned map is shared and must not be
// modified.
func (l *Ledger) ByRound() map[int][]models.DraftPick {
	return l.view().byRound
}

// ByParticipant groups picks by participant id. The returned map is shared
// and must not be modified.
func (l *Ledger) ByParticipant() map[string][]models.DraftPick {
	return l.view().byParticipant
}

// PickedIDs is the set of drafted player ids. The returned map is shared and
// must not be modified.
func (l *Ledger) PickedIDs() map[string]struct{} {
	return l.view().picked
}

// IsPicked reports whether playerID has been drafted.
func (l *Ledger) IsPicked(playerID string) bool {
	_, ok := l.view().picked[playerID]
	return ok
}

// Roster returns the players drafted by participantID in pick order.
func (l *Ledger) Roster(participantID string) []models.DraftPlayer {
	picks := l.view().byParticipant[participantID]
	roster := make([]models.DraftPlayer, 0, len(picks))
	for _, p := range picks {
		roster = append(roster, p.Player)
	}
	return roster
}

// PositionCounts tallies participantID's roster by position.
func (l *Ledger) PositionCounts(participantID string) models.PositionCounts {
	return models.CountPositions(l.Roster(participantID))
}
