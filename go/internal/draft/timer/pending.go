package timer

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// pending is a one-shot callback waiting on a clock timer.
type pending struct {
	timer clockwork.Timer
	stop  chan struct{}
}

func arm(clock clockwork.Clock, d time.Duration, fire func()) *pending {
	p := &pending{timer: clock.NewTimer(d), stop: make(chan struct{})}
	go func() {
		select {
		case <-p.timer.Chan():
			fire()
		case <-p.stop:
		}
	}()
	return p
}

// cancel stops the timer and releases the waiting goroutine. A callback that
// already fired is discarded by the generation checks of its owner.
func (p *pending) cancel() {
	if p == nil {
		return
	}
	stopAndDrainTimer(p.timer)
	close(p.stop)
}

func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
