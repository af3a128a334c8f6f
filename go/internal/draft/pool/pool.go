// Package pool derives the undrafted player pool and its filtered views.
package pool

import (
	"sort"
	"strings"
	"sync"

	"github.com/mcdev12/dynasty/go/internal/draft/ledger"
	"github.com/mcdev12/dynasty/go/internal/models"
)

// SortField selects the ordering of a pool view.
type SortField string

const (
	SortByADP       SortField = "adp"
	SortByName      SortField = "name"
	SortByProjected SortField = "projected"
	SortByRank      SortField = "rank"
)

// ParseSortField maps user input onto a SortField, defaulting to ADP.
func ParseSortField(s string) SortField {
	switch SortField(strings.ToLower(strings.TrimSpace(s))) {
	case SortByName:
		return SortByName
	case SortByProjected:
		return SortByProjected
	case SortByRank:
		return SortByRank
	default:
		return SortByADP
	}
}

// Filter narrows and orders a pool view. An empty Positions slice keeps
// every position.
type Filter struct {
	Positions  []models.Position
	Search     string
	SortBy     SortField
	Descending bool
}

// View is a filtered, sorted slice of the available pool. The counts are
// taken before filtering.
type View struct {
	Players        []models.DraftPlayer    `json:"players"`
	TotalAvailable int                     `json:"total_available"`
	ByPosition     map[models.Position]int `json:"by_position"`
	Loading        bool                    `json:"loading"`
	Error          string                  `json:"error,omitempty"`
}

// Pool holds the reference players with the live ADP overlay applied.
type Pool struct {
	mu       sync.RWMutex
	variance float64
	base     []models.DraftPlayer
	adp      map[string]float64
	ranked   []models.DraftPlayer
	byID     map[string]int
	byName   map[string]int
	loading  bool
	err      error
}

// New creates an empty pool. variance is the maximum rank jitter applied
// per player name when ADPs tie; zero disables it.
func New(variance float64) *Pool {
	return &Pool{variance: variance, adp: make(map[string]float64)}
}

// SetReference replaces the reference players.
func (p *Pool) SetReference(players []models.DraftPlayer) {
	base := make([]models.DraftPlayer, 0, len(players))
	for _, pl := range players {
		pl.EnsureID()
		base = append(base, pl)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = base
	p.rebuild()
}

// MergeADP overlays live ADP values keyed by player id.
func (p *Pool) MergeADP(adp map[string]float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, v := range adp {
		p.adp[id] = v
	}
	p.rebuild()
}

func (p *Pool) SetLoading(loading bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = loading
}

// SetError records the last collaborator failure; nil clears it.
func (p *Pool) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *Pool) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

func (p *Pool) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ranked)
}

// Ranked returns every reference player in rank order.
func (p *Pool) Ranked() []models.DraftPlayer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.DraftPlayer, len(p.ranked))
	copy(out, p.ranked)
	return out
}

// Available returns the ranked players not in picked.
func (p *Pool) Available(picked map[string]struct{}) []models.DraftPlayer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.DraftPlayer, 0, len(p.ranked))
	for _, pl := range p.ranked {
		if _, drafted := picked[pl.ID]; !drafted {
			out = append(out, pl)
		}
	}
	return out
}

// Lookup finds a player by id.
func (p *Pool) Lookup(id string) (models.DraftPlayer, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i, ok := p.byID[id]; ok {
		return p.ranked[i], true
	}
	return models.DraftPlayer{}, false
}

// Resolve maps a ledger player reference onto the pool: by id, then by
// case-insensitive name, then by the id derived from the name.
func (p *Pool) Resolve(ref ledger.PlayerRef) (models.DraftPlayer, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if ref.ID != "" {
		if i, ok := p.byID[ref.ID]; ok {
			return p.ranked[i], true
		}
	}
	if ref.Name == "" {
		return models.DraftPlayer{}, false
	}
	if i, ok := p.byName[strings.ToLower(ref.Name)]; ok {
		return p.ranked[i], true
	}
	if i, ok := p.byID[models.PlayerIDFromName(ref.Name)]; ok {
		return p.ranked[i], true
	}
	return models.DraftPlayer{}, false
}

// View returns the available players after applying f.
func (p *Pool) View(picked map[string]struct{}, f Filter) View {
	available := p.Available(picked)

	v := View{
		TotalAvailable: len(available),
		ByPosition:     make(map[models.Position]int, len(models.Positions)),
		Loading:        p.Loading(),
	}
	if err := p.Err(); err != nil {
		v.Error = err.Error()
	}
	for _, pl := range available {
		v.ByPosition[pl.Position]++
	}

	positions := make(map[models.Position]struct{}, len(f.Positions))
	for _, pos := range f.Positions {
		positions[pos] = struct{}{}
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	players := make([]models.DraftPlayer, 0, len(available))
	for _, pl := range available {
		if len(positions) > 0 {
			if _, ok := positions[pl.Position]; !ok {
				continue
			}
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(pl.Name), search) &&
			!strings.Contains(strings.ToLower(pl.Team), search) {
			continue
		}
		players = append(players, pl)
	}

	sortPlayers(players, f.SortBy, f.Descending)
	v.Players = players
	return v
}

func sortPlayers(players []models.DraftPlayer, field SortField, desc bool) {
	less := func(a, b models.DraftPlayer) int {
		switch field {
		case SortByName:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortByProjected:
			return compareFloat(a.ProjectedPoints, b.ProjectedPoints)
		case SortByRank:
			return compareInt(a.Rank, b.Rank)
		default:
			return compareFloat(adpKey(a.ADP), adpKey(b.ADP))
		}
	}
	sort.SliceStable(players, func(i, j int) bool {
		c := less(players[i], players[j])
		if c == 0 {
			return players[i].Name < players[j].Name
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	return compareFloat(float64(a), float64(b))
}
