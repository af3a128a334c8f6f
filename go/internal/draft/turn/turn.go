// Package turn maps global pick numbers onto snake draft order.
//
// Pick numbers are 1-indexed and participant indexes are 0-indexed draft
// positions. Odd rounds run 0..N-1, even rounds run N-1..0. Inputs are
// assumed to be validated by the caller (teamCount >= 1, pickNumber >= 1).
package turn

import "github.com/mcdev12/dynasty/go/internal/models"

// RoundForPick returns ceil(pickNumber / teamCount).
func RoundForPick(pickNumber, teamCount int) int {
	return (pickNumber + teamCount - 1) / teamCount
}

// PickInRound returns the 1-indexed pick within its round.
func PickInRound(pickNumber, teamCount int) int {
	return positionInRound(pickNumber, teamCount) + 1
}

func positionInRound(pickNumber, teamCount int) int {
	return (pickNumber - 1) % teamCount
}

// ParticipantForPick returns the draft position that owns pickNumber.
func ParticipantForPick(pickNumber, teamCount int) int {
	pos := positionInRound(pickNumber, teamCount)
	if RoundForPick(pickNumber, teamCount)%2 == 1 {
		return pos
	}
	return teamCount - 1 - pos
}

// Slot bundles the derived coordinates of a pick.
func Slot(pickNumber, teamCount int) models.PickSlot {
	return models.PickSlot{
		PickNumber:       pickNumber,
		Round:            RoundForPick(pickNumber, teamCount),
		PickInRound:      PickInRound(pickNumber, teamCount),
		ParticipantIndex: ParticipantForPick(pickNumber, teamCount),
	}
}

// TotalPicks is the length of a full draft.
func TotalPicks(teamCount, rosterSize int) int {
	return teamCount * rosterSize
}

// PickNumbersForParticipant returns the rosterSize pick numbers owned by
// index, one per round, ascending.
func PickNumbersForParticipant(index, teamCount, rosterSize int) []int {
	picks := make([]int, 0, rosterSize)
	for round := 1; round <= rosterSize; round++ {
		offset := index
		if round%2 == 0 {
			offset = teamCount - 1 - index
		}
		picks = append(picks, (round-1)*teamCount+offset+1)
	}
	return picks
}

// NextPickForParticipant returns the first pick number at or after
// currentPickNumber owned by index. ok is false once the participant has no
// picks left.
func NextPickForParticipant(currentPickNumber, index, teamCount, rosterSize int) (pickNumber int, ok bool) {
	if currentPickNumber < 1 {
		currentPickNumber = 1
	}
	round := RoundForPick(currentPickNumber, teamCount)
	for ; round <= rosterSize; round++ {
		offset := index
		if round%2 == 0 {
			offset = teamCount - 1 - index
		}
		p := (round-1)*teamCount + offset + 1
		if p >= currentPickNumber {
			return p, true
		}
	}
	return 0, false
}

// PicksUntilTurn counts the picks made before index is on the clock again.
// It is 0 when index holds the current pick, and also 0 when index has no
// picks left in the draft.
func PicksUntilTurn(currentPickNumber, index, teamCount, rosterSize int) int {
	next, ok := NextPickForParticipant(currentPickNumber, index, teamCount, rosterSize)
	if !ok {
		return 0
	}
	if currentPickNumber < 1 {
		currentPickNumber = 1
	}
	return next - currentPickNumber
}
