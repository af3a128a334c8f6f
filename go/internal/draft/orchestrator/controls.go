package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/mcdev12/dynasty/go/internal/draft/events"
	"github.com/mcdev12/dynasty/go/internal/models"
)

// StartDraft moves a waiting room to active and starts the clock for the
// current pick.
func (o *Orchestrator) StartDraft(ctx context.Context) error {
	return o.do(ctx, func() error {
		if o.status != models.DraftStatusWaiting {
			return ErrInvalidState
		}
		o.startedAt = o.clock.Now()
		o.status = models.DraftStatusActive
		o.publish(events.EventTypeDraftStarted, events.DraftStartedPayload{
			StartedAt:   o.startedAt,
			TotalRounds: o.room.Settings.RosterSize,
			TotalPicks:  o.room.Settings.TotalPicks(),
			TeamCount:   o.room.Settings.TeamCount,
		})
		o.logger.Info().Int("pick_number", o.current).Msg("draft started")
		o.advance()
		return nil
	})
}

// TogglePause pauses an active draft or resumes a paused one and returns the
// new status.
func (o *Orchestrator) TogglePause(ctx context.Context) (models.DraftStatus, error) {
	return call(ctx, o, func() (models.DraftStatus, error) {
		switch o.status {
		case models.DraftStatusActive:
			o.timer.Pause()
			o.status = models.DraftStatusPaused
			o.publish(events.EventTypeDraftPaused, events.DraftPausedPayload{
				PausedAt:         o.clock.Now(),
				PickNumber:       o.current,
				TimeRemainingSec: o.timer.Seconds(),
			})
			o.logger.Info().Int("pick_number", o.current).Msg("draft paused")
		case models.DraftStatusPaused:
			o.status = models.DraftStatusActive
			o.timer.Resume()
			o.publish(events.EventTypeDraftResumed, events.DraftResumedPayload{
				ResumedAt:        o.clock.Now(),
				PickNumber:       o.current,
				TimeRemainingSec: o.timer.Seconds(),
			})
			o.logger.Info().Int("pick_number", o.current).Msg("draft resumed")
			o.resumeExpired()
		default:
			return o.status, ErrInvalidState
		}
		return o.status, nil
	})
}

// resumeExpired replays what the timer would have done while the draft was
// paused.
func (o *Orchestrator) resumeExpired() {
	if !o.timer.IsExpired() {
		return
	}
	var err error
	switch {
	case !o.isMyTurn():
		_, err = o.forcePick()
	case o.timer.ExpireFired():
		_, err = o.autoPickForUser()
	}
	if err != nil && !errors.Is(err, ErrNoEligible) && !errors.Is(err, ErrAutoPickDone) {
		o.logger.Error().Err(err).Int("pick_number", o.current).Msg("autodraft on resume failed")
	}
}

// Restart clears every pick locally and remotely and returns the room to
// waiting.
func (o *Orchestrator) Restart(ctx context.Context) error {
	return o.do(ctx, func() error {
		if o.status == models.DraftStatusLoading {
			return ErrInvalidState
		}
		o.timer.Stop()
		o.ledger.Reset()
		o.current = 1
		o.autoPicked = 0
		o.startedAt = time.Time{}
		o.status = models.DraftStatusWaiting
		o.awaitingReset = true

		o.publish(events.EventTypeDraftRestarted, events.DraftRestartedPayload{RestartedAt: o.clock.Now()})
		o.logger.Info().Msg("draft restarted")

		ctx := o.ctx
		o.bg.Go(func() {
			ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
			defer cancel()
			if err := o.remote.Reset(ctx, o.roomID); err != nil {
				o.post(resetFailed{err: err})
			}
		})
		return nil
	})
}

// LeaveDraft stops the room. Pending callbacks are cancelled and Run
// returns.
func (o *Orchestrator) LeaveDraft(ctx context.Context) error {
	return o.do(ctx, func() error {
		if o.left {
			return nil
		}
		o.left = true
		o.timer.Stop()
		close(o.stop)
		o.logger.Info().Msg("left draft")
		return nil
	})
}

func (o *Orchestrator) onPoolLoaded(m poolLoaded) {
	if m.err != nil {
		o.logger.Error().Err(m.err).Msg("player pool failed to load")
	}
	if o.status == models.DraftStatusLoading {
		o.status = models.DraftStatusWaiting
	}
	if o.deferred != nil {
		snap := *o.deferred
		o.deferred = nil
		o.applySnapshot(snap)
	}
	o.pruneQueue()
}
