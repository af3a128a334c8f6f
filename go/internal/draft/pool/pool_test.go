package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty/go/internal/draft/ledger"
	"github.com/mcdev12/dynasty/go/internal/models"
)

func fixturePlayers() []models.DraftPlayer {
	return []models.DraftPlayer{
		{Name: "Ja'Marr Chase", Position: models.PositionWR, Team: "CIN", ADP: 1.2, ProjectedPoints: 310},
		{Name: "Bijan Robinson", Position: models.PositionRB, Team: "ATL", ADP: 2.1, ProjectedPoints: 295},
		{Name: "Josh Allen", Position: models.PositionQB, Team: "BUF", ADP: 24.5, ProjectedPoints: 390},
		{Name: "Brock Bowers", Position: models.PositionTE, Team: "LV", ADP: 18.0, ProjectedPoints: 220},
		{Name: "Puka Nacua", Position: models.PositionWR, Team: "LAR", ADP: 7.4, ProjectedPoints: 280},
		{Name: "Deep Sleeper", Position: models.PositionRB, Team: "ATL", ProjectedPoints: 40},
	}
}

func newFixturePool() *Pool {
	p := New(0)
	p.SetReference(fixturePlayers())
	return p
}

func names(players []models.DraftPlayer) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

func TestRanked_OrdersByADPWithMissingLast(t *testing.T) {
	p := newFixturePool()
	ranked := p.Ranked()
	assert.Equal(t, []string{"Ja'Marr Chase", "Bijan Robinson", "Puka Nacua", "Brock Bowers", "Josh Allen", "Deep Sleeper"}, names(ranked))
	for i, pl := range ranked {
		assert.Equal(t, i+1, pl.Rank)
		assert.NotEmpty(t, pl.ID)
	}
}

func TestMergeADP_Reranks(t *testing.T) {
	p := newFixturePool()
	p.MergeADP(map[string]float64{"josh-allen": 1.0})
	assert.Equal(t, "Josh Allen", p.Ranked()[0].Name)
	pl, ok := p.Lookup("josh-allen")
	require.True(t, ok)
	assert.Equal(t, 1.0, pl.ADP)
}

func TestRankVariance_IsDeterministic(t *testing.T) {
	players := []models.DraftPlayer{
		{Name: "A Player", Position: models.PositionWR, ADP: 10},
		{Name: "B Player", Position: models.PositionWR, ADP: 10},
		{Name: "C Player", Position: models.PositionWR, ADP: 10},
	}
	first := New(0.8)
	first.SetReference(players)
	second := New(0.8)
	second.SetReference(players)
	assert.Equal(t, names(first.Ranked()), names(second.Ranked()))
}

func TestAvailable_ExcludesPicked(t *testing.T) {
	p := newFixturePool()
	avail := p.Available(map[string]struct{}{"bijan-robinson": {}, "jamarr-chase": {}})
	assert.Len(t, avail, 4)
	for _, pl := range avail {
		assert.NotEqual(t, "bijan-robinson", pl.ID)
		assert.NotEqual(t, "jamarr-chase", pl.ID)
	}
}

func TestView_FiltersInOrder(t *testing.T) {
	p := newFixturePool()
	picked := map[string]struct{}{"bijan-robinson": {}}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "no filter sorts by adp",
			filter: Filter{},
			want:   []string{"Ja'Marr Chase", "Puka Nacua", "Brock Bowers", "Josh Allen", "Deep Sleeper"},
		},
		{
			name:   "position set",
			filter: Filter{Positions: []models.Position{models.PositionWR, models.PositionTE}},
			want:   []string{"Ja'Marr Chase", "Puka Nacua", "Brock Bowers"},
		},
		{
			name:   "search matches team case insensitively",
			filter: Filter{Search: "atl"},
			want:   []string{"Deep Sleeper"},
		},
		{
			name:   "search by name",
			filter: Filter{Search: "NACUA"},
			want:   []string{"Puka Nacua"},
		},
		{
			name:   "projected descending",
			filter: Filter{Positions: []models.Position{models.PositionWR, models.PositionQB}, SortBy: SortByProjected, Descending: true},
			want:   []string{"Josh Allen", "Ja'Marr Chase", "Puka Nacua"},
		},
		{
			name:   "name ascending",
			filter: Filter{SortBy: SortByName, Search: "a"},
			want:   []string{"Deep Sleeper", "Ja'Marr Chase", "Josh Allen", "Puka Nacua"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := p.View(picked, tt.filter)
			assert.Equal(t, tt.want, names(v.Players))
			assert.Equal(t, 5, v.TotalAvailable)
			assert.Equal(t, 1, v.ByPosition[models.PositionRB])
			assert.Equal(t, 2, v.ByPosition[models.PositionWR])
		})
	}
}

func TestResolve(t *testing.T) {
	p := newFixturePool()

	pl, ok := p.Resolve(ledger.PlayerRef{ID: "puka-nacua"})
	require.True(t, ok)
	assert.Equal(t, "Puka Nacua", pl.Name)

	pl, ok = p.Resolve(ledger.PlayerRef{Name: "josh allen"})
	require.True(t, ok)
	assert.Equal(t, models.PositionQB, pl.Position)

	pl, ok = p.Resolve(ledger.PlayerRef{Name: "JaMarr Chase"})
	require.True(t, ok)
	assert.Equal(t, "jamarr-chase", pl.ID)

	_, ok = p.Resolve(ledger.PlayerRef{Name: "Nobody"})
	assert.False(t, ok)
}

func TestParseSortField(t *testing.T) {
	assert.Equal(t, SortByName, ParseSortField("Name"))
	assert.Equal(t, SortByRank, ParseSortField("rank"))
	assert.Equal(t, SortByADP, ParseSortField("bogus"))
}
