// Package autodraft picks a player on a participant's behalf.
package autodraft

import (
	"sort"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// Source names the tier a selection came from.
type Source string

const (
	SourceQueue  Source = "queue"
	SourceCustom Source = "custom"
	SourceADP    Source = "adp"
)

// Selection is the player chosen by the selector.
type Selection struct {
	Player models.DraftPlayer `json:"player"`
	Source Source             `json:"source"`
}

// SelectAutodraftPlayer chooses a player for a participant. Queue entries
// win over custom rankings, which win over lowest ADP (ties broken by name).
// A candidate is skipped when the roster already holds the position's
// maximum. ok is false when no available player is eligible.
func SelectAutodraftPlayer(
	available []models.DraftPlayer,
	currentRoster []models.DraftPlayer,
	queueIDs []string,
	customRankings []string,
	limits models.RosterLimits,
) (sel Selection, ok bool) {
	byID := make(map[string]models.DraftPlayer, len(available))
	for _, p := range available {
		byID[p.ID] = p
	}
	counts := models.CountPositions(currentRoster)
	eligible := func(p models.DraftPlayer) bool {
		return limits.Allows(p.Position, counts)
	}

	if p, found := firstEligible(queueIDs, byID, eligible); found {
		return Selection{Player: p, Source: SourceQueue}, true
	}
	if len(customRankings) > 0 {
		if p, found := firstEligible(customRankings, byID, eligible); found {
			return Selection{Player: p, Source: SourceCustom}, true
		}
	}

	candidates := make([]models.DraftPlayer, 0, len(available))
	for _, p := range available {
		if eligible(p) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return Selection{}, false
	}
	sortByADP(candidates)
	return Selection{Player: candidates[0], Source: SourceADP}, true
}

// SelectFromQueue considers only the queue tier.
func SelectFromQueue(available, currentRoster []models.DraftPlayer, queueIDs []string, limits models.RosterLimits) (Selection, bool) {
	byID := make(map[string]models.DraftPlayer, len(available))
	for _, p := range available {
		byID[p.ID] = p
	}
	counts := models.CountPositions(currentRoster)
	p, ok := firstEligible(queueIDs, byID, func(p models.DraftPlayer) bool {
		return limits.Allows(p.Position, counts)
	})
	if !ok {
		return Selection{}, false
	}
	return Selection{Player: p, Source: SourceQueue}, true
}

func firstEligible(ids []string, byID map[string]models.DraftPlayer, eligible func(models.DraftPlayer) bool) (models.DraftPlayer, bool) {
	for _, id := range ids {
		p, ok := byID[id]
		if ok && eligible(p) {
			return p, true
		}
	}
	return models.DraftPlayer{}, false
}

// sortByADP orders players by ADP ascending with players lacking an ADP
// last, then by name.
func sortByADP(players []models.DraftPlayer) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if (a.ADP > 0) != (b.ADP > 0) {
			return a.ADP > 0
		}
		if a.ADP != b.ADP {
			return a.ADP < b.ADP
		}
		return a.Name < b.Name
	})
}
