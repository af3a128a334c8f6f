package timer

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grace = 3 * time.Second

type counters struct {
	ticks  atomic.Int32
	zero   atomic.Int32
	expire atomic.Int32
	last   atomic.Int32
}

func (c *counters) handlers() Handlers {
	return Handlers{
		OnTick: func(s int) {
			c.ticks.Add(1)
			c.last.Store(int32(s))
		},
		OnZero:   func() { c.zero.Add(1) },
		OnExpire: func() { c.expire.Add(1) },
	}
}

// advance waits for the timer to arm its next clock timer, then moves the
// clock forward.
func advance(t *testing.T, clock *clockwork.FakeClock, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(d)
}

func tickSeconds(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		advance(t, clock, time.Second)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, time.Millisecond)
}

func TestTimer_CountsDownAndExpiresOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock, 30, grace)
	var c counters
	tm.SetHandlers(c.handlers())

	require.True(t, tm.Start())
	assert.True(t, tm.IsRunning())

	tickSeconds(t, clock, 29)
	waitFor(t, func() bool { return tm.Seconds() == 1 })
	assert.True(t, tm.IsRunning())

	advance(t, clock, time.Second)
	waitFor(t, func() bool { return c.zero.Load() == 1 })
	assert.Equal(t, 0, tm.Seconds())
	assert.True(t, tm.IsExpired())
	assert.False(t, tm.IsRunning())
	assert.EqualValues(t, 30, c.ticks.Load())
	assert.Zero(t, c.expire.Load(), "expire waits for the grace delay")

	advance(t, clock, grace)
	waitFor(t, func() bool { return c.expire.Load() == 1 })
	assert.True(t, tm.ExpireFired())

	// nothing re-arms the expiry before a reset
	assert.False(t, tm.Start())
	tm.Pause()
	tm.Resume()
	clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	assert.EqualValues(t, 1, c.expire.Load())
	assert.EqualValues(t, 1, c.zero.Load())

	tm.Reset()
	assert.True(t, tm.IsRunning())
	assert.Equal(t, 30, tm.Seconds())
	assert.False(t, tm.ExpireFired())
}

func TestTimer_PauseFreezesCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock, 10, grace)
	tm.Start()

	tickSeconds(t, clock, 3)
	waitFor(t, func() bool { return tm.Seconds() == 7 })

	require.True(t, tm.Pause())
	assert.Equal(t, StatePaused, tm.State())
	assert.False(t, tm.IsRunning())
	clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 7, tm.Seconds())

	require.True(t, tm.Resume())
	tickSeconds(t, clock, 2)
	waitFor(t, func() bool { return tm.Seconds() == 5 })
}

func TestTimer_PauseDoesNotCancelScheduledExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock, 1, grace)
	var c counters
	tm.SetHandlers(c.handlers())
	tm.Start()

	advance(t, clock, time.Second)
	waitFor(t, func() bool { return c.zero.Load() == 1 })

	assert.False(t, tm.Pause(), "an expired timer is not running")
	advance(t, clock, grace)
	waitFor(t, func() bool { return c.expire.Load() == 1 })
}

func TestTimer_ResetCancelsPendingExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock, 1, grace)
	var c counters
	tm.SetHandlers(c.handlers())
	tm.Start()

	advance(t, clock, time.Second)
	waitFor(t, func() bool { return c.zero.Load() == 1 })

	tm.ResetTo(5)
	assert.True(t, tm.IsRunning())
	// the only clock timer now is the next tick
	advance(t, clock, time.Second)
	waitFor(t, func() bool { return tm.Seconds() == 4 })
	clock.Advance(grace)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, c.expire.Load())
}

func TestTimer_HandlerSwappedBeforeFire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock, 1, grace)
	var first, second counters
	tm.SetHandlers(first.handlers())
	tm.Start()

	advance(t, clock, time.Second)
	waitFor(t, func() bool { return first.zero.Load() == 1 })

	tm.SetHandlers(second.handlers())
	advance(t, clock, grace)
	waitFor(t, func() bool { return second.expire.Load() == 1 })
	assert.Zero(t, first.expire.Load())
}

func TestTimer_ZeroSecondsExpiresOnStart(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock, 0, 0)
	var c counters
	tm.SetHandlers(c.handlers())

	tm.Start()
	assert.True(t, tm.IsExpired())
	assert.EqualValues(t, 1, c.zero.Load())
	waitFor(t, func() bool { return c.expire.Load() == 1 })
}

func TestTimer_StopCancelsEverything(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock, 1, grace)
	var c counters
	tm.SetHandlers(c.handlers())
	tm.Start()
	advance(t, clock, time.Second)
	waitFor(t, func() bool { return c.zero.Load() == 1 })

	tm.Stop()
	assert.Equal(t, StateIdle, tm.State())
	clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, c.expire.Load())
}

func TestTimer_RunningIffActiveUnpausedWithTimeLeft(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock, 3, grace)
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 300; i++ {
		switch rng.Intn(6) {
		case 0:
			tm.Start()
		case 1:
			tm.Pause()
		case 2:
			tm.Resume()
		case 3:
			tm.ResetTo(rng.Intn(3))
		case 4:
			tm.Reset()
		case 5:
			tm.Stop()
		}
		snap := tm.Snapshot()
		active := snap.State == StateRunning || snap.State == StateExpired
		paused := snap.State == StatePaused
		require.Equal(t, active && !paused && snap.Seconds > 0, snap.IsRunning, "step %d: %+v", i, snap)
		if snap.State == StateExpired {
			require.Zero(t, snap.Seconds)
		}
	}
	tm.Stop()
}

func TestTimer_ResetWithSwapsHandlersForNextCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := New(clock, 2, grace)
	var first, second counters
	tm.SetHandlers(first.handlers())
	require.True(t, tm.Start())

	tickSeconds(t, clock, 2)
	waitFor(t, func() bool { return first.zero.Load() == 1 })

	tm.ResetWith(second.handlers())
	assert.Equal(t, StateRunning, tm.State())
	assert.Equal(t, 2, tm.Seconds())

	tickSeconds(t, clock, 2)
	waitFor(t, func() bool { return second.zero.Load() == 1 })
	advance(t, clock, grace)
	waitFor(t, func() bool { return second.expire.Load() == 1 })

	assert.Equal(t, int32(0), first.expire.Load())
	assert.Equal(t, int32(2), first.ticks.Load())
	assert.Equal(t, int32(2), second.ticks.Load())
}
