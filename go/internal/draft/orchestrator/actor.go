package orchestrator

import (
	"context"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// Inbox messages. Timer messages carry the pick they were armed for so a
// callback that raced a pick change is dropped.
type (
	execMsg struct {
		fn func()
	}
	timerTick struct {
		pickNumber int
		seconds    int
	}
	timerZero struct {
		pickNumber int
	}
	timerExpire struct {
		pickNumber int
	}
	appendFailed struct {
		pick models.RawPick
		err  error
	}
	resetFailed struct {
		err error
	}
	poolLoaded struct {
		err error
	}
)

// post delivers msg to the room goroutine unless the room has stopped.
func (o *Orchestrator) post(msg any) {
	select {
	case o.inbox <- msg:
	case <-o.stopping:
	}
}

func (o *Orchestrator) handle(msg any) {
	switch m := msg.(type) {
	case execMsg:
		m.fn()
	case timerTick:
		o.onTick(m)
	case timerZero:
		o.onZero(m)
	case timerExpire:
		o.onExpire(m)
	case appendFailed:
		o.rollback(m)
	case resetFailed:
		o.logger.Error().Err(m.err).Msg("failed to reset remote ledger")
		o.awaitingReset = false
	case poolLoaded:
		o.onPoolLoaded(m)
	default:
		o.logger.Warn().Interface("message", msg).Msg("unknown inbox message")
	}
}

// call runs fn on the room goroutine and waits for its result.
func call[T any](ctx context.Context, o *Orchestrator, fn func() (T, error)) (T, error) {
	var zero T
	type result struct {
		val T
		err error
	}
	resCh := make(chan result, 1)
	msg := execMsg{fn: func() {
		val, err := fn()
		resCh <- result{val: val, err: err}
	}}

	select {
	case o.inbox <- msg:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-o.done:
		return zero, ErrClosed
	}

	select {
	case res := <-resCh:
		return res.val, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-o.done:
		// the room may have answered before stopping
		select {
		case res := <-resCh:
			return res.val, res.err
		default:
			return zero, ErrClosed
		}
	}
}

// do is call for operations without a result.
func (o *Orchestrator) do(ctx context.Context, fn func() error) error {
	_, err := call(ctx, o, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
