// Package orchestrator runs a draft room: it owns the current pick number,
// wires the turn timer to autodraft, and keeps the local ledger in step with
// the remote store.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/mcdev12/dynasty/go/internal/draft/autodraft"
	"github.com/mcdev12/dynasty/go/internal/draft/events"
	"github.com/mcdev12/dynasty/go/internal/draft/ledger"
	"github.com/mcdev12/dynasty/go/internal/draft/pool"
	"github.com/mcdev12/dynasty/go/internal/draft/queue"
	"github.com/mcdev12/dynasty/go/internal/draft/remote"
	"github.com/mcdev12/dynasty/go/internal/draft/timer"
	"github.com/mcdev12/dynasty/go/internal/models"
)

const (
	inboxSize      = 64
	publishTimeout = 2 * time.Second
	remoteTimeout  = 5 * time.Second
)

var (
	ErrClosed        = errors.New("draft room closed")
	ErrNotActive     = errors.New("draft is not active")
	ErrInvalidState  = errors.New("operation not allowed in the current draft state")
	ErrNoLocalUser   = errors.New("room has no local user")
	ErrQueueEmpty    = errors.New("queue is empty")
	ErrAutoPickDone  = errors.New("autopick already made for this pick")
	ErrNoEligible    = errors.New("no eligible player available")
	ErrDraftComplete = errors.New("draft is complete")
)

// Config wires a room to its collaborators. Pool, Remote and Clock are
// required.
type Config struct {
	Room models.DraftRoom
	Pool *pool.Pool
	// Provider and ADPFeed fill Pool while the room is loading. A nil
	// Provider means Pool is already loaded.
	Provider pool.Provider
	ADPFeed  pool.ADPFeed
	// ADPRefresh re-reads ADPFeed on an interval. Zero disables it.
	ADPRefresh time.Duration
	Remote     remote.Store
	QueueStore queue.Store
	Publisher  events.Publisher
	// Strategy picks for participants other than the local user.
	Strategy autodraft.Strategy
	// CustomRankings orders the local user's autodraft before ADP.
	CustomRankings []string
	Clock          clockwork.Clock
}

// Orchestrator is one draft room. All room state is owned by the goroutine
// running Run; the exported methods hand work to it and wait for the result.
type Orchestrator struct {
	cfg       Config
	roomID    string
	room      models.DraftRoom
	userIndex int
	clock     clockwork.Clock
	pool      *pool.Pool
	remote    remote.Store
	publisher events.Publisher
	strategy  autodraft.Strategy
	ledger    *ledger.Ledger
	timer     *timer.Timer
	logger    zerolog.Logger

	inbox    chan any
	stop     chan struct{}
	stopping chan struct{}
	done     chan struct{}
	bg       conc.WaitGroup

	// owned by Run
	ctx           context.Context
	queue         *queue.Manager
	status        models.DraftStatus
	current       int
	startedAt     time.Time
	autoPicked    int
	awaitingReset bool
	deferred      *remote.Snapshot
	left          bool
	syncErr       error
}

// New builds a room in the loading state. Nothing happens until Run.
func New(cfg Config) *Orchestrator {
	if cfg.Publisher == nil {
		cfg.Publisher = events.NopPublisher{}
	}
	if cfg.Strategy == nil {
		cfg.Strategy = autodraft.DefaultStrategy{}
	}
	if cfg.QueueStore == nil {
		cfg.QueueStore = queue.NewMemoryStore()
	}
	if cfg.Room.Settings.RosterLimits == nil {
		cfg.Room.Settings.RosterLimits = models.DefaultRosterLimits()
	}

	roomID := cfg.Room.ID.String()
	settings := cfg.Room.Settings
	o := &Orchestrator{
		cfg:       cfg,
		roomID:    roomID,
		room:      cfg.Room,
		userIndex: cfg.Room.UserIndex(),
		clock:     cfg.Clock,
		pool:      cfg.Pool,
		remote:    cfg.Remote,
		publisher: cfg.Publisher,
		strategy:  cfg.Strategy,
		ledger:    ledger.New(cfg.Room, cfg.Pool, cfg.Clock),
		timer:     timer.New(cfg.Clock, settings.PickTimeSeconds, settings.GracePeriod()),
		logger:    log.With().Str("room_id", roomID).Logger(),
		inbox:     make(chan any, inboxSize),
		stop:      make(chan struct{}),
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
		status:    models.DraftStatusLoading,
		current:   1,
	}
	return o
}

// RoomID returns the room's id.
func (o *Orchestrator) RoomID() string {
	return o.roomID
}

// Done is closed once Run has returned.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Run drives the room until ctx is cancelled or the local user leaves.
func (o *Orchestrator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		close(o.stopping)
		cancel()
		o.timer.Stop()
		o.bg.Wait()
		close(o.done)
		o.logger.Info().Msg("draft room stopped")
	}()
	o.ctx = ctx

	if user, ok := o.user(); ok {
		o.queue = queue.New(ctx, queue.Key{RoomID: o.roomID, ParticipantID: user.ID}, o.cfg.QueueStore, o.clock)
	}

	snapshots, err := o.remote.Watch(ctx, o.roomID)
	if err != nil {
		o.syncErr = err
		o.logger.Error().Err(err).Msg("failed to watch remote ledger, continuing offline")
	}

	o.startLoading(ctx)
	o.logger.Info().
		Int("teams", o.room.Settings.TeamCount).
		Int("rounds", o.room.Settings.RosterSize).
		Msg("draft room running")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-o.stop:
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			o.applySnapshot(snap)
		case msg := <-o.inbox:
			o.handle(msg)
		}
	}
}

// startLoading fills the pool off the room goroutine and starts the ADP
// refresh loop.
func (o *Orchestrator) startLoading(ctx context.Context) {
	if o.cfg.Provider == nil {
		o.status = models.DraftStatusWaiting
		return
	}
	o.pool.SetLoading(true)
	o.bg.Go(func() {
		err := pool.Load(ctx, o.pool, o.cfg.Provider, o.cfg.ADPFeed)
		o.post(poolLoaded{err: err})
	})

	if o.cfg.ADPFeed == nil || o.cfg.ADPRefresh <= 0 {
		return
	}
	o.bg.Go(func() {
		ticker := o.clock.NewTicker(o.cfg.ADPRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if err := pool.RefreshADP(ctx, o.pool, o.cfg.ADPFeed); err != nil {
					o.logger.Warn().Err(err).Msg("adp refresh failed")
				}
			}
		}
	})
}
