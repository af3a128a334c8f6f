package autodraft

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// Input is everything a strategy may look at when picking.
type Input struct {
	Available      []models.DraftPlayer
	Roster         []models.DraftPlayer
	QueueIDs       []string
	CustomRankings []string
	Limits         models.RosterLimits
}

// Strategy selects a player for an autodrafted turn.
type Strategy interface {
	Select(in Input) (Selection, bool)
}

// DefaultStrategy applies the queue, custom rankings, ADP order.
type DefaultStrategy struct{}

func (DefaultStrategy) Select(in Input) (Selection, bool) {
	return SelectAutodraftPlayer(in.Available, in.Roster, in.QueueIDs, in.CustomRankings, in.Limits)
}

// RandomStrategy behaves like DefaultStrategy for queued and custom ranked
// players but otherwise chooses at random among the best eligible players by
// ADP. It gives computer drafters some variety.
type RandomStrategy struct {
	window int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomStrategy constructs a RandomStrategy choosing among the best
// window players. A zero seed seeds from the clock.
func NewRandomStrategy(window int, seed int64) *RandomStrategy {
	if window < 1 {
		window = 1
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomStrategy{window: window, rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomStrategy) Select(in Input) (Selection, bool) {
	if sel, ok := SelectAutodraftPlayer(in.Available, in.Roster, in.QueueIDs, in.CustomRankings, in.Limits); !ok || sel.Source != SourceADP {
		return sel, ok
	}

	counts := models.CountPositions(in.Roster)
	candidates := make([]models.DraftPlayer, 0, s.window)
	sorted := make([]models.DraftPlayer, len(in.Available))
	copy(sorted, in.Available)
	sortByADP(sorted)
	for _, p := range sorted {
		if in.Limits.Allows(p.Position, counts) {
			candidates = append(candidates, p)
			if len(candidates) == s.window {
				break
			}
		}
	}

	s.mu.Lock()
	choice := candidates[s.rng.Intn(len(candidates))]
	s.mu.Unlock()
	return Selection{Player: choice, Source: SourceADP}, true
}
