package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/dynasty/go/internal/draft/autodraft"
	"github.com/mcdev12/dynasty/go/internal/draft/events"
	"github.com/mcdev12/dynasty/go/internal/draft/ledger"
	"github.com/mcdev12/dynasty/go/internal/draft/timer"
	"github.com/mcdev12/dynasty/go/internal/draft/turn"
	"github.com/mcdev12/dynasty/go/internal/models"
)

const sourceManual = "manual"

// DraftPlayer picks playerID for the local user. It must be the user's turn.
func (o *Orchestrator) DraftPlayer(ctx context.Context, playerID string) (models.DraftPick, error) {
	return call(ctx, o, func() (models.DraftPick, error) {
		return o.draftPlayer(playerID, sourceManual)
	})
}

// DraftFromQueue picks the first queued player the local user's roster can
// still take. Queued players at a full position are passed over.
func (o *Orchestrator) DraftFromQueue(ctx context.Context) (models.DraftPick, error) {
	return call(ctx, o, func() (models.DraftPick, error) {
		user, ok := o.user()
		if !ok || o.queue == nil {
			return models.DraftPick{}, ErrNoLocalUser
		}
		if o.queue.Len() == 0 {
			return models.DraftPick{}, ErrQueueEmpty
		}
		sel, ok := autodraft.SelectFromQueue(
			o.pool.Available(o.ledger.PickedIDs()),
			o.ledger.Roster(user.ID),
			o.queue.IDs(),
			o.room.Settings.RosterLimits,
		)
		if !ok {
			return models.DraftPick{}, ErrNoEligible
		}
		return o.draftPlayer(sel.Player.ID, string(sel.Source))
	})
}

// AutoPickForUser autodrafts for the local user on their turn. It picks at
// most once per pick number.
func (o *Orchestrator) AutoPickForUser(ctx context.Context) (models.DraftPick, error) {
	return call(ctx, o, o.autoPickForUser)
}

// ForcePick autodrafts for whoever holds the current pick.
func (o *Orchestrator) ForcePick(ctx context.Context) (models.DraftPick, error) {
	return call(ctx, o, o.forcePick)
}

func (o *Orchestrator) draftPlayer(playerID, source string) (models.DraftPick, error) {
	user, ok := o.user()
	if !ok {
		return models.DraftPick{}, ErrNoLocalUser
	}
	player, ok := o.pool.Lookup(playerID)
	if !ok {
		return models.DraftPick{}, fmt.Errorf("%w: %s", ledger.ErrUnknownPlayer, playerID)
	}
	return o.commit(ledger.PickRequest{
		Player:        player,
		ParticipantID: user.ID,
		ForUserOnly:   true,
	}, source, false)
}

func (o *Orchestrator) autoPickForUser() (models.DraftPick, error) {
	if err := o.checkActive(); err != nil {
		return models.DraftPick{}, err
	}
	if !o.isMyTurn() {
		return models.DraftPick{}, ledger.ErrNotYourTurn
	}
	if o.autoPicked == o.current {
		return models.DraftPick{}, ErrAutoPickDone
	}
	o.autoPicked = o.current

	user, _ := o.user()
	var queueIDs []string
	if o.queue != nil {
		queueIDs = o.queue.IDs()
	}
	sel, ok := autodraft.SelectAutodraftPlayer(
		o.pool.Available(o.ledger.PickedIDs()),
		o.ledger.Roster(user.ID),
		queueIDs,
		o.cfg.CustomRankings,
		o.room.Settings.RosterLimits,
	)
	if !ok {
		o.unavailable(user)
		return models.DraftPick{}, ErrNoEligible
	}
	return o.commit(ledger.PickRequest{Player: sel.Player}, string(sel.Source), true)
}

func (o *Orchestrator) forcePick() (models.DraftPick, error) {
	if err := o.checkActive(); err != nil {
		return models.DraftPick{}, err
	}
	if o.isMyTurn() {
		o.autoPicked = 0
		return o.autoPickForUser()
	}

	holder := o.holder()
	sel, ok := o.strategy.Select(autodraft.Input{
		Available: o.pool.Available(o.ledger.PickedIDs()),
		Roster:    o.ledger.Roster(holder.ID),
		Limits:    o.room.Settings.RosterLimits,
	})
	if !ok {
		o.unavailable(holder)
		return models.DraftPick{}, ErrNoEligible
	}
	return o.commit(ledger.PickRequest{Player: sel.Player}, string(sel.Source), true)
}

func (o *Orchestrator) checkActive() error {
	switch o.status {
	case models.DraftStatusActive:
		return nil
	case models.DraftStatusCompleted:
		return ErrDraftComplete
	default:
		return ErrNotActive
	}
}

// commit records the pick for the current pick number and moves the draft
// on. The remote append happens in the background; a failure rolls the pick
// back.
func (o *Orchestrator) commit(req ledger.PickRequest, source string, forced bool) (models.DraftPick, error) {
	if err := o.checkActive(); err != nil {
		return models.DraftPick{}, err
	}
	req.PickNumber = o.current
	pick, err := o.ledger.MakePick(req)
	if err != nil {
		return models.DraftPick{}, err
	}
	o.current++
	o.pruneQueue()

	o.publish(events.EventTypePickMade, events.PickMadePayload{
		Pick:     pick,
		Source:   source,
		Forced:   forced,
		MadeAt:   pick.Timestamp,
		NextPick: o.current,
	})
	o.appendRemote(pick)
	o.advance()
	return pick, nil
}

func (o *Orchestrator) appendRemote(pick models.DraftPick) {
	raw, err := pick.ToRawPick()
	if err != nil {
		o.logger.Error().Err(err).Int("pick_number", pick.PickNumber).Msg("failed to encode pick")
		return
	}
	ctx := o.ctx
	o.bg.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
		defer cancel()
		if err := o.remote.AppendPick(ctx, o.roomID, raw); err != nil {
			o.post(appendFailed{pick: raw, err: err})
		}
	})
}

// rollback undoes a local pick the remote store refused, unless a remote
// snapshot already replaced it.
func (o *Orchestrator) rollback(m appendFailed) {
	n := m.pick.PickNumber
	logger := o.logger.With().Int("pick_number", n).Logger()
	if !o.ledger.IsPending(n) {
		logger.Debug().Err(m.err).Msg("append failed for a pick that is no longer pending")
		return
	}

	logger.Error().Err(m.err).Msg("failed to append pick, rolling back")
	o.ledger.Prune(n)
	o.current = n
	o.autoPicked = 0
	if o.status == models.DraftStatusCompleted {
		o.status = models.DraftStatusActive
	}
	o.publish(events.EventTypeLedgerSynced, events.LedgerSyncedPayload{
		CurrentPickNumber: o.current,
		Picks:             o.ledger.Len(),
	})
	o.advance()
}

// advance arms the timer for the current pick, or completes the draft.
func (o *Orchestrator) advance() {
	if o.current > o.room.Settings.TotalPicks() {
		o.complete()
		return
	}
	if o.status != models.DraftStatusActive && o.status != models.DraftStatusPaused {
		return
	}

	o.timer.ResetWith(o.handlersFor(o.current))
	if o.status != models.DraftStatusActive {
		return
	}
	if o.timer.State() == timer.StateIdle {
		o.timer.Start()
	}

	holder := o.holder()
	slot := turn.Slot(o.current, o.room.Settings.TeamCount)
	now := o.clock.Now()
	o.publish(events.EventTypePickStarted, events.PickStartedPayload{
		PickNumber:       o.current,
		Round:            slot.Round,
		PickInRound:      slot.PickInRound,
		ParticipantID:    holder.ID,
		ParticipantIndex: slot.ParticipantIndex,
		StartedAt:        now,
		TimeoutAt:        now.Add(o.room.Settings.PickTime()),
		PickTimeSeconds:  o.room.Settings.PickTimeSeconds,
	})
}

func (o *Orchestrator) complete() {
	if o.status == models.DraftStatusCompleted {
		return
	}
	o.status = models.DraftStatusCompleted
	o.timer.Stop()

	now := o.clock.Now()
	payload := events.DraftCompletedPayload{
		CompletedAt: now,
		TotalPicks:  o.room.Settings.TotalPicks(),
	}
	if !o.startedAt.IsZero() {
		payload.Duration = now.Sub(o.startedAt).String()
	}
	o.publish(events.EventTypeDraftCompleted, payload)
	o.logger.Info().Int("picks", o.ledger.Len()).Msg("draft completed")
}

func (o *Orchestrator) unavailable(p models.Participant) {
	o.logger.Warn().
		Int("pick_number", o.current).
		Str("participant_id", p.ID).
		Msg("no eligible player for autodraft")
	o.publish(events.EventTypeAutodraftUnavailable, events.AutodraftUnavailablePayload{
		PickNumber:    o.current,
		ParticipantID: p.ID,
	})
}

func (o *Orchestrator) handlersFor(pickNumber int) timer.Handlers {
	return timer.Handlers{
		OnTick:   func(seconds int) { o.post(timerTick{pickNumber: pickNumber, seconds: seconds}) },
		OnZero:   func() { o.post(timerZero{pickNumber: pickNumber}) },
		OnExpire: func() { o.post(timerExpire{pickNumber: pickNumber}) },
	}
}

func (o *Orchestrator) onTick(m timerTick) {
	if m.pickNumber != o.current || o.status != models.DraftStatusActive {
		return
	}
	o.publish(events.EventTypeTimerTick, events.TimerTickPayload{
		PickNumber:       m.pickNumber,
		ParticipantID:    o.holder().ID,
		TimeRemainingSec: m.seconds,
		TickedAt:         o.clock.Now(),
	})
}

// onZero autodrafts right away for everyone but the local user, who gets
// the grace period.
func (o *Orchestrator) onZero(m timerZero) {
	if m.pickNumber != o.current || o.status != models.DraftStatusActive || o.isMyTurn() {
		return
	}
	if _, err := o.forcePick(); err != nil && !errors.Is(err, ErrNoEligible) {
		o.logger.Error().Err(err).Int("pick_number", m.pickNumber).Msg("autodraft on timeout failed")
	}
}

func (o *Orchestrator) onExpire(m timerExpire) {
	if m.pickNumber != o.current || o.status != models.DraftStatusActive || !o.isMyTurn() {
		return
	}
	if _, err := o.autoPickForUser(); err != nil && !errors.Is(err, ErrNoEligible) && !errors.Is(err, ErrAutoPickDone) {
		o.logger.Error().Err(err).Int("pick_number", m.pickNumber).Msg("autopick after grace period failed")
	}
}

func (o *Orchestrator) pruneQueue() {
	if o.queue == nil {
		return
	}
	if o.queue.Prune(o.ledger.PickedIDs()) > 0 {
		o.publishQueue()
	}
}

func (o *Orchestrator) user() (models.Participant, bool) {
	if o.userIndex < 0 {
		return models.Participant{}, false
	}
	return o.room.ParticipantAt(o.userIndex)
}

func (o *Orchestrator) holder() models.Participant {
	p, _ := o.room.ParticipantAt(turn.ParticipantForPick(o.current, o.room.Settings.TeamCount))
	return p
}

func (o *Orchestrator) isMyTurn() bool {
	return o.userIndex >= 0 &&
		o.current <= o.room.Settings.TotalPicks() &&
		turn.ParticipantForPick(o.current, o.room.Settings.TeamCount) == o.userIndex
}

func (o *Orchestrator) publish(eventType events.EventType, payload any) {
	event, err := events.New(o.roomID, eventType, o.clock.Now(), payload)
	if err != nil {
		o.logger.Error().Err(err).Msg("failed to build event")
		return
	}
	ctx, cancel := context.WithTimeout(o.ctx, publishTimeout)
	defer cancel()
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to publish event")
	}
}
