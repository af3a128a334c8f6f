package orchestrator

import (
	"context"
	"fmt"
	"slices"

	"github.com/mcdev12/dynasty/go/internal/draft/events"
	"github.com/mcdev12/dynasty/go/internal/draft/ledger"
	"github.com/mcdev12/dynasty/go/internal/models"
)

// Queue returns the local user's queue.
func (o *Orchestrator) Queue(ctx context.Context) ([]models.QueuedPlayer, error) {
	return call(ctx, o, func() ([]models.QueuedPlayer, error) {
		if o.queue == nil {
			return nil, ErrNoLocalUser
		}
		return o.queue.Items(), nil
	})
}

// Enqueue adds an undrafted player to the end of the local user's queue. It
// reports false when the player was already queued.
func (o *Orchestrator) Enqueue(ctx context.Context, playerID string) (bool, error) {
	return o.queueOp(ctx, func() (bool, error) {
		player, err := o.queueable(playerID)
		if err != nil {
			return false, err
		}
		return o.queue.Enqueue(player), nil
	})
}

// Dequeue removes a player from the local user's queue.
func (o *Orchestrator) Dequeue(ctx context.Context, playerID string) (bool, error) {
	return o.queueOp(ctx, func() (bool, error) {
		return o.queue.Dequeue(playerID), nil
	})
}

// ReorderQueue moves the entry at from to to. Out of range or equal
// indices are rejected with false.
func (o *Orchestrator) ReorderQueue(ctx context.Context, from, to int) (bool, error) {
	return o.queueOp(ctx, func() (bool, error) {
		return o.queue.Reorder(from, to), nil
	})
}

// ToggleQueue queues or unqueues a player and reports whether it is queued
// afterwards.
func (o *Orchestrator) ToggleQueue(ctx context.Context, playerID string) (bool, error) {
	return o.queueOp(ctx, func() (bool, error) {
		if o.queue.IsQueued(playerID) {
			o.queue.Dequeue(playerID)
			return false, nil
		}
		player, err := o.queueable(playerID)
		if err != nil {
			return false, err
		}
		return o.queue.Toggle(player), nil
	})
}

// ClearQueue empties the local user's queue.
func (o *Orchestrator) ClearQueue(ctx context.Context) error {
	_, err := o.queueOp(ctx, func() (bool, error) {
		if o.queue.Len() == 0 {
			return false, nil
		}
		o.queue.Clear()
		return true, nil
	})
	return err
}

// queueOp runs fn on the room goroutine and publishes the queue when it
// changed.
func (o *Orchestrator) queueOp(ctx context.Context, fn func() (bool, error)) (bool, error) {
	return call(ctx, o, func() (bool, error) {
		if o.queue == nil {
			return false, ErrNoLocalUser
		}
		before := o.queue.Len()
		order := o.queue.IDs()
		ok, err := fn()
		if err != nil {
			return false, err
		}
		if o.queue.Len() != before || !slices.Equal(order, o.queue.IDs()) {
			o.publishQueue()
		}
		return ok, nil
	})
}

func (o *Orchestrator) queueable(playerID string) (models.DraftPlayer, error) {
	player, ok := o.pool.Lookup(playerID)
	if !ok {
		return models.DraftPlayer{}, fmt.Errorf("%w: %s", ledger.ErrUnknownPlayer, playerID)
	}
	if o.ledger.IsPicked(playerID) {
		return models.DraftPlayer{}, fmt.Errorf("%w: %s", ledger.ErrAlreadyDrafted, playerID)
	}
	return player, nil
}

func (o *Orchestrator) publishQueue() {
	user, _ := o.user()
	o.publish(events.EventTypeQueueUpdated, events.QueueUpdatedPayload{
		ParticipantID: user.ID,
		Queue:         o.queue.Items(),
	})
}
