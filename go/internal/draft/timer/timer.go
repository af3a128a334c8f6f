// Package timer implements the per-turn countdown of a draft room.
//
// A Timer counts down whole seconds. When it reaches zero it fires OnZero
// and, after a grace delay, exactly one OnExpire. Only Reset, ResetTo and
// Stop clear a scheduled expiry; pausing leaves it in place.
package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// State is the countdown state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateExpired State = "expired"
)

type expiry int

const (
	expiryNone expiry = iota
	expiryScheduled
	expiryFired
)

// Handlers are read when a callback fires, so replacing them takes effect
// for callbacks that are already scheduled.
type Handlers struct {
	OnTick   func(seconds int)
	OnZero   func()
	OnExpire func()
}

// Snapshot is a point in time view of a Timer.
type Snapshot struct {
	Seconds     int   `json:"seconds"`
	State       State `json:"state"`
	IsRunning   bool  `json:"is_running"`
	IsExpired   bool  `json:"is_expired"`
	ExpireFired bool  `json:"expire_fired"`
}

// Timer is safe for concurrent use. Handlers run on timer goroutines
// without the lock held.
type Timer struct {
	clock    clockwork.Clock
	duration int
	grace    time.Duration

	mu         sync.Mutex
	state      State
	seconds    int
	gen        uint64
	tick       *pending
	expiry     expiry
	expiryGen  uint64
	graceTimer *pending
	handlers   Handlers
}

// New returns an idle timer that counts down from seconds and waits grace
// after zero before expiring.
func New(clock clockwork.Clock, seconds int, grace time.Duration) *Timer {
	return &Timer{
		clock:    clock,
		duration: seconds,
		grace:    grace,
		state:    StateIdle,
		seconds:  seconds,
	}
}

// SetHandlers replaces the current handlers.
func (t *Timer) SetHandlers(h Handlers) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = h
}

// Start moves an idle or paused timer to running. A timer with no seconds
// left goes straight to expired.
func (t *Timer) Start() bool {
	t.mu.Lock()
	if t.state != StateIdle && t.state != StatePaused {
		t.mu.Unlock()
		return false
	}
	n := t.runLocked()
	t.mu.Unlock()
	n.deliver()
	return true
}

// Resume is Start for a paused timer.
func (t *Timer) Resume() bool {
	return t.Start()
}

// Pause freezes a running countdown. It does not cancel an expiry that is
// already scheduled.
func (t *Timer) Pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateRunning {
		return false
	}
	t.gen++
	t.tick.cancel()
	t.tick = nil
	t.state = StatePaused
	return true
}

// Reset starts a fresh countdown from the configured duration.
func (t *Timer) Reset() {
	t.ResetTo(t.duration)
}

// ResetTo cancels pending tick and expiry callbacks and starts a fresh
// countdown from seconds. Running and expired timers keep running; idle and
// paused timers keep their state.
func (t *Timer) ResetTo(seconds int) {
	t.mu.Lock()
	n := t.resetLocked(seconds)
	t.mu.Unlock()
	n.deliver()
}

// ResetWith swaps the handlers and resets to the configured duration in one
// step. Callbacks of the previous countdown never see the new handlers.
func (t *Timer) ResetWith(h Handlers) {
	t.mu.Lock()
	t.handlers = h
	n := t.resetLocked(t.duration)
	t.mu.Unlock()
	n.deliver()
}

func (t *Timer) resetLocked(seconds int) notify {
	t.cancelLocked()
	t.seconds = max(seconds, 0)
	switch t.state {
	case StateRunning, StateExpired:
		return t.runLocked()
	}
	return notify{}
}

// Stop cancels every pending callback and returns the timer to idle.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.state = StateIdle
}

func (t *Timer) Seconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seconds
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsRunning reports whether the countdown is ticking.
func (t *Timer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateRunning && t.seconds > 0
}

func (t *Timer) IsExpired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateExpired
}

// ExpireFired reports whether OnExpire has fired since the last reset.
func (t *Timer) ExpireFired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expiry == expiryFired
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Seconds:     t.seconds,
		State:       t.state,
		IsRunning:   t.state == StateRunning && t.seconds > 0,
		IsExpired:   t.state == StateExpired,
		ExpireFired: t.expiry == expiryFired,
	}
}

// notify carries the callbacks to run once the lock is released.
type notify struct {
	tick    func(int)
	seconds int
	zero    func()
}

func (n notify) deliver() {
	if n.tick != nil {
		n.tick(n.seconds)
	}
	if n.zero != nil {
		n.zero()
	}
}

// runLocked starts ticking, or expires immediately at zero seconds.
func (t *Timer) runLocked() notify {
	if t.seconds > 0 {
		t.state = StateRunning
		t.armTickLocked()
		return notify{}
	}
	return t.expireLocked()
}

func (t *Timer) armTickLocked() {
	gen := t.gen
	t.tick = arm(t.clock, time.Second, func() { t.onTick(gen) })
}

func (t *Timer) onTick(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.state != StateRunning {
		t.mu.Unlock()
		return
	}
	t.seconds--

	var n notify
	if t.seconds > 0 {
		t.armTickLocked()
	} else {
		t.tick = nil
		n = t.expireLocked()
	}
	n.tick = t.handlers.OnTick
	n.seconds = t.seconds
	t.mu.Unlock()
	n.deliver()
}

// expireLocked moves to expired and schedules the grace expiry unless one
// was already scheduled or fired for this countdown.
func (t *Timer) expireLocked() notify {
	t.state = StateExpired
	t.seconds = 0
	if t.expiry != expiryNone {
		return notify{}
	}
	t.expiry = expiryScheduled
	gen := t.expiryGen
	if t.grace <= 0 {
		go t.onExpire(gen)
	} else {
		t.graceTimer = arm(t.clock, t.grace, func() { t.onExpire(gen) })
	}
	return notify{zero: t.handlers.OnZero}
}

func (t *Timer) onExpire(gen uint64) {
	t.mu.Lock()
	if gen != t.expiryGen || t.expiry != expiryScheduled {
		t.mu.Unlock()
		return
	}
	t.expiry = expiryFired
	t.graceTimer = nil
	h := t.handlers.OnExpire
	t.mu.Unlock()
	if h != nil {
		h()
	}
}

func (t *Timer) cancelLocked() {
	t.gen++
	t.expiryGen++
	t.tick.cancel()
	t.tick = nil
	t.graceTimer.cancel()
	t.graceTimer = nil
	t.expiry = expiryNone
}
