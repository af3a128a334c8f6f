package pool

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// adpKey sorts players without an ADP after everyone else.
func adpKey(adp float64) float64 {
	if adp <= 0 {
		return math.MaxFloat64
	}
	return adp
}

// jitter returns a deterministic offset in [-variance/2, variance/2) for a
// player name so that equal ADPs do not always rank in the same order.
func jitter(name string, variance float64) float64 {
	if variance == 0 {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(name)))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	return (rng.Float64() - 0.5) * variance
}

// rebuild recomputes the ranked list and lookup indexes. Callers hold mu.
func (p *Pool) rebuild() {
	type keyed struct {
		player models.DraftPlayer
		key    float64
	}
	items := make([]keyed, 0, len(p.base))
	for _, pl := range p.base {
		if adp, ok := p.adp[pl.ID]; ok && adp > 0 {
			pl.ADP = adp
		}
		key := adpKey(pl.ADP)
		if pl.ADP > 0 {
			key += jitter(pl.Name, p.variance)
		}
		items = append(items, keyed{player: pl, key: key})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].key != items[j].key {
			return items[i].key < items[j].key
		}
		if items[i].player.ProjectedPoints != items[j].player.ProjectedPoints {
			return items[i].player.ProjectedPoints > items[j].player.ProjectedPoints
		}
		return items[i].player.Name < items[j].player.Name
	})

	p.ranked = make([]models.DraftPlayer, len(items))
	p.byID = make(map[string]int, len(items))
	p.byName = make(map[string]int, len(items))
	for i, it := range items {
		it.player.Rank = i + 1
		p.ranked[i] = it.player
		if _, dup := p.byID[it.player.ID]; !dup {
			p.byID[it.player.ID] = i
		}
		name := strings.ToLower(it.player.Name)
		if _, dup := p.byName[name]; !dup {
			p.byName[name] = i
		}
	}
}
