package turn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantForPick_TwelveTeams(t *testing.T) {
	tests := []struct {
		pick int
		want int
	}{
		{1, 0},
		{12, 11},
		{13, 11},
		{24, 0},
		{25, 0},
		{18, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParticipantForPick(tt.pick, 12), "pick %d", tt.pick)
	}
}

func TestParticipantForPick_MatchesSnakeFormula(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		teams := rng.Intn(19) + 2
		pick := rng.Intn(500) + 1

		round := (pick + teams - 1) / teams
		pos := (pick - 1) % teams
		want := pos
		if round%2 == 0 {
			want = teams - 1 - pos
		}
		require.Equal(t, want, ParticipantForPick(pick, teams), "pick %d teams %d", pick, teams)
		require.Equal(t, round, RoundForPick(pick, teams))
		require.Equal(t, pos+1, PickInRound(pick, teams))
	}
}

func TestSlot(t *testing.T) {
	slot := Slot(14, 12)
	assert.Equal(t, 14, slot.PickNumber)
	assert.Equal(t, 2, slot.Round)
	assert.Equal(t, 2, slot.PickInRound)
	assert.Equal(t, 10, slot.ParticipantIndex)
}

func TestPickNumbersForParticipant(t *testing.T) {
	assert.Equal(t, []int{1, 24, 25, 48}, PickNumbersForParticipant(0, 12, 4))
	assert.Equal(t, []int{12, 13, 36, 37}, PickNumbersForParticipant(11, 12, 4))
	assert.Equal(t, []int{1, 2, 3}, PickNumbersForParticipant(0, 1, 3))
}

func TestPickNumbersForParticipant_CoverEveryPickOnce(t *testing.T) {
	const teams, rounds = 10, 15
	seen := make(map[int]int)
	for idx := 0; idx < teams; idx++ {
		picks := PickNumbersForParticipant(idx, teams, rounds)
		require.Len(t, picks, rounds)
		for _, p := range picks {
			seen[p]++
			require.Equal(t, idx, ParticipantForPick(p, teams))
		}
	}
	require.Len(t, seen, TotalPicks(teams, rounds))
}

func TestPicksUntilTurn(t *testing.T) {
	tests := []struct {
		name    string
		current int
		index   int
		want    int
	}{
		{"on the clock", 1, 0, 0},
		{"next in round", 1, 1, 1},
		{"turn at the wrap", 12, 11, 0},
		{"back to back", 13, 11, 0},
		{"wait through the wrap", 2, 0, 22},
		{"last seat waits", 1, 11, 11},
		{"no picks left", 48, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PicksUntilTurn(tt.current, tt.index, 12, 4))
		})
	}
}

func TestNextPickForParticipant(t *testing.T) {
	next, ok := NextPickForParticipant(2, 0, 12, 18)
	require.True(t, ok)
	assert.Equal(t, 24, next)

	_, ok = NextPickForParticipant(25, 0, 12, 2)
	assert.False(t, ok)
}
