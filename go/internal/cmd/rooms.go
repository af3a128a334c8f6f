package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/config"
	"github.com/mcdev12/dynasty/go/internal/draft/autodraft"
	"github.com/mcdev12/dynasty/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty/go/internal/draft/pool"
	"github.com/mcdev12/dynasty/go/internal/models"
)

const autoStartPoll = 250 * time.Millisecond

// startRooms registers every configured room with the hub. Each room gets
// its own pool so ADP jitter and drafted flags stay per room.
func startRooms(ctx context.Context, cfg *config.Config, s *Services) error {
	for _, rc := range cfg.Rooms {
		o := orchestrator.New(orchestrator.Config{
			Room:           rc.DraftRoom(),
			Pool:           pool.New(cfg.Pool.Variance),
			Provider:       s.Players,
			ADPFeed:        s.ADP,
			ADPRefresh:     cfg.Pool.ADPRefresh,
			Remote:         s.Remote,
			QueueStore:     s.Queues,
			Publisher:      s.Publisher,
			Strategy:       strategyFor(rc),
			CustomRankings: s.Rankings,
			Clock:          s.Clock,
		})
		if err := s.Hub.Add(o); err != nil {
			return fmt.Errorf("failed to start room %q: %w", rc.Name, err)
		}
		log.Info().Str("room_id", o.RoomID()).Str("name", rc.Name).Msg("draft room added")

		if rc.AutoStart {
			go autoStart(ctx, s.Clock, o)
		}
	}
	return nil
}

func strategyFor(rc config.RoomConfig) autodraft.Strategy {
	if rc.Strategy == config.StrategyRandom {
		return autodraft.NewRandomStrategy(rc.RandomWindow, 0)
	}
	return autodraft.DefaultStrategy{}
}

// autoStart starts the draft once the room has finished loading.
func autoStart(ctx context.Context, clock clockwork.Clock, o *orchestrator.Orchestrator) {
	ticker := clock.NewTicker(autoStartPoll)
	defer ticker.Stop()
	for {
		state, err := o.State(ctx)
		if err != nil {
			return
		}
		switch state.Status {
		case models.DraftStatusLoading:
		case models.DraftStatusWaiting:
			if err := o.StartDraft(ctx); err != nil {
				log.Warn().Err(err).Str("room_id", o.RoomID()).Msg("auto start failed")
			}
			return
		default:
			// already started, possibly from the remote ledger
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-o.Done():
			return
		case <-ticker.Chan():
		}
	}
}
