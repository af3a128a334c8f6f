package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty/go/internal/draft/events"
	"github.com/mcdev12/dynasty/go/internal/draft/ledger"
	"github.com/mcdev12/dynasty/go/internal/draft/pool"
	"github.com/mcdev12/dynasty/go/internal/draft/remote"
	"github.com/mcdev12/dynasty/go/internal/draft/timer"
	"github.com/mcdev12/dynasty/go/internal/models"
)

const noUser = -1

// testRoom seats teams participants p0..pN with two second picks and a one
// second grace period.
func testRoom(teams, rounds, userPos int) models.DraftRoom {
	room := models.DraftRoom{
		ID:     uuid.New(),
		Name:   "test room",
		Status: models.DraftStatusLoading,
		Settings: models.DraftSettings{
			TeamCount:          teams,
			RosterSize:         rounds,
			PickTimeSeconds:    2,
			GracePeriodSeconds: 1,
			RosterLimits:       models.DefaultRosterLimits(),
		},
	}
	for i := 0; i < teams; i++ {
		room.Participants = append(room.Participants, models.Participant{
			ID:            fmt.Sprintf("p%d", i),
			Name:          fmt.Sprintf("Team %d", i),
			IsUser:        i == userPos,
			DraftPosition: i,
		})
	}
	return room
}

// testPlayers returns players p-01.. ranked by ADP.
func testPlayers(n int) []models.DraftPlayer {
	players := make([]models.DraftPlayer, n)
	for i := range players {
		players[i] = models.DraftPlayer{
			ID:       fmt.Sprintf("p-%02d", i+1),
			Name:     fmt.Sprintf("Player %02d", i+1),
			Position: models.Positions[i%len(models.Positions)],
			Team:     "KC",
			ADP:      float64(i + 1),
		}
	}
	return players
}

type failingStore struct {
	*remote.MemoryStore
}

func (failingStore) AppendPick(context.Context, string, models.RawPick) error {
	return errors.New("remote ledger unavailable")
}

type harness struct {
	t      *testing.T
	clock  *clockwork.FakeClock
	orch   *Orchestrator
	store  *remote.MemoryStore
	rec    *events.Recorder
	room   models.DraftRoom
	cancel context.CancelFunc
}

func newHarness(t *testing.T, room models.DraftRoom, opts ...func(*Config)) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	store := remote.NewMemoryStore()
	rec := &events.Recorder{}

	p := pool.New(0)
	p.SetReference(testPlayers(30))

	cfg := Config{
		Room:      room,
		Pool:      p,
		Remote:    store,
		Publisher: rec,
		Clock:     clock,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	o := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = o.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-o.Done()
	})

	return &harness{t: t, clock: clock, orch: o, store: store, rec: rec, room: room, cancel: cancel}
}

func (h *harness) ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	h.t.Cleanup(cancel)
	return ctx
}

func (h *harness) state() State {
	h.t.Helper()
	s, err := h.orch.State(h.ctx())
	require.NoError(h.t, err)
	return s
}

func (h *harness) waitFor(cond func(State) bool) State {
	h.t.Helper()
	var last State
	require.Eventually(h.t, func() bool {
		last = h.state()
		return cond(last)
	}, 2*time.Second, 2*time.Millisecond)
	return last
}

// advance waits for the room timer to arm, then moves the clock forward.
func (h *harness) advance(d time.Duration) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(h.t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(d)
}

func (h *harness) tickSeconds(n int) {
	h.t.Helper()
	for i := 0; i < n; i++ {
		h.advance(time.Second)
	}
}

func (h *harness) start() {
	h.t.Helper()
	require.NoError(h.t, h.orch.StartDraft(h.ctx()))
}

func pickMade(t *testing.T, e events.DraftEvent) events.PickMadePayload {
	t.Helper()
	payload, err := events.ParsePayload(e)
	require.NoError(t, err)
	return *payload.(*events.PickMadePayload)
}

func TestOrchestrator_WaitsUntilStarted(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 1))

	s := h.state()
	assert.Equal(t, models.DraftStatusWaiting, s.Status)
	assert.Equal(t, 1, s.CurrentPickNumber)
	assert.Equal(t, 1, s.CurrentRound)
	assert.Equal(t, 6, s.TotalPicks)
	assert.False(t, s.IsMyTurn)
	assert.Equal(t, 1, s.PicksUntilMyTurn)
	require.NotNil(t, s.CurrentParticipant)
	assert.Equal(t, "p0", s.CurrentParticipant.ID)
	assert.Equal(t, timer.StateIdle, s.Timer.State)

	_, err := h.orch.DraftPlayer(h.ctx(), "p-01")
	assert.ErrorIs(t, err, ErrNotActive)

	h.start()
	s = h.state()
	assert.Equal(t, models.DraftStatusActive, s.Status)
	assert.True(t, s.Timer.IsRunning)
	assert.NotNil(t, s.StartedAt)
	assert.Len(t, h.rec.OfType(events.EventTypeDraftStarted), 1)
	assert.Len(t, h.rec.OfType(events.EventTypePickStarted), 1)

	assert.ErrorIs(t, h.orch.StartDraft(h.ctx()), ErrInvalidState)
}

func TestOrchestrator_OtherParticipantAutodraftsAtZero(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 1))
	h.start()

	h.tickSeconds(2)
	s := h.waitFor(func(s State) bool { return s.CurrentPickNumber == 2 })

	require.Len(t, s.Picks, 1)
	assert.Equal(t, "p-01", s.Picks[0].Player.ID)
	assert.Equal(t, "p0", s.Picks[0].ParticipantID)
	assert.True(t, s.IsMyTurn)
	assert.Equal(t, timer.StateRunning, s.Timer.State)
	assert.Equal(t, 2, s.Timer.Seconds)

	made := h.rec.OfType(events.EventTypePickMade)
	require.Len(t, made, 1)
	payload := pickMade(t, made[0])
	assert.Equal(t, "adp", payload.Source)
	assert.True(t, payload.Forced)
	assert.Equal(t, 2, payload.NextPick)

	require.Eventually(t, func() bool {
		return h.store.Snapshot(h.orch.RoomID()).CurrentPickNumber == 2
	}, time.Second, 2*time.Millisecond)
}

func TestOrchestrator_UserAutopicksOnceAfterGrace(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 1))
	queued, err := h.orch.Enqueue(h.ctx(), "p-05")
	require.NoError(t, err)
	require.True(t, queued)
	h.start()

	h.tickSeconds(2)
	h.waitFor(func(s State) bool { return s.CurrentPickNumber == 2 })

	// the user's clock runs out but nothing happens until the grace period ends
	h.tickSeconds(2)
	s := h.waitFor(func(s State) bool { return s.Timer.IsExpired })
	assert.Equal(t, 2, s.CurrentPickNumber)
	assert.False(t, s.Timer.ExpireFired)

	h.advance(time.Second)
	s = h.waitFor(func(s State) bool { return s.CurrentPickNumber == 3 })
	require.Len(t, s.Picks, 2)
	assert.Equal(t, "p-05", s.Picks[1].Player.ID)
	assert.Equal(t, "p1", s.Picks[1].ParticipantID)
	assert.Empty(t, s.Queue)

	made := h.rec.OfType(events.EventTypePickMade)
	require.Len(t, made, 2)
	assert.Equal(t, "queue", pickMade(t, made[1]).Source)

	_, err = h.orch.AutoPickForUser(h.ctx())
	assert.ErrorIs(t, err, ledger.ErrNotYourTurn)
	assert.Len(t, h.rec.OfType(events.EventTypePickMade), 2)
}

func TestOrchestrator_AutoPickForUserOncePerPick(t *testing.T) {
	h := newHarness(t, testRoom(2, 2, 0), func(cfg *Config) {
		cfg.Pool = pool.New(0)
	})
	h.start()

	// an empty pool leaves the pick open
	_, err := h.orch.AutoPickForUser(h.ctx())
	assert.ErrorIs(t, err, ErrNoEligible)
	assert.Len(t, h.rec.OfType(events.EventTypeAutodraftUnavailable), 1)

	_, err = h.orch.AutoPickForUser(h.ctx())
	assert.ErrorIs(t, err, ErrAutoPickDone)
	assert.Equal(t, 1, h.state().CurrentPickNumber)
	assert.Len(t, h.rec.OfType(events.EventTypeAutodraftUnavailable), 1)
}

func TestOrchestrator_DraftPlayer(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 0))
	_, err := h.orch.Enqueue(h.ctx(), "p-03")
	require.NoError(t, err)
	h.start()

	_, err = h.orch.DraftPlayer(h.ctx(), "nobody")
	assert.ErrorIs(t, err, ledger.ErrUnknownPlayer)

	pick, err := h.orch.DraftPlayer(h.ctx(), "p-03")
	require.NoError(t, err)
	assert.Equal(t, 1, pick.PickNumber)
	assert.Equal(t, "p0", pick.ParticipantID)

	_, err = h.orch.DraftPlayer(h.ctx(), "p-04")
	assert.ErrorIs(t, err, ledger.ErrNotYourTurn)

	s := h.state()
	assert.Equal(t, 2, s.CurrentPickNumber)
	assert.Empty(t, s.Queue)
	assert.Len(t, h.rec.OfType(events.EventTypeQueueUpdated), 2)
	assert.Equal(t, "manual", pickMade(t, h.rec.OfType(events.EventTypePickMade)[0]).Source)

	view, err := h.orch.AvailablePlayers(h.ctx(), pool.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 29, view.TotalAvailable)
}

func TestOrchestrator_DraftFromQueue(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 0))
	h.start()

	_, err := h.orch.DraftFromQueue(h.ctx())
	assert.ErrorIs(t, err, ErrQueueEmpty)

	for _, id := range []string{"p-09", "p-02"} {
		_, err := h.orch.Enqueue(h.ctx(), id)
		require.NoError(t, err)
	}
	pick, err := h.orch.DraftFromQueue(h.ctx())
	require.NoError(t, err)
	assert.Equal(t, "p-09", pick.Player.ID)

	q, err := h.orch.Queue(h.ctx())
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "p-02", q[0].ID)
	assert.Equal(t, 0, q[0].QueuePosition)
}

func TestOrchestrator_DraftFromQueueSkipsFullPositions(t *testing.T) {
	room := testRoom(2, 3, 1)
	room.Settings.RosterLimits = models.RosterLimits{models.PositionQB: {Min: 1, Max: 1}}
	h := newHarness(t, room)
	h.start()

	h.tickSeconds(2)
	h.waitFor(func(s State) bool { return s.CurrentPickNumber == 2 })
	_, err := h.orch.DraftPlayer(h.ctx(), "p-05")
	require.NoError(t, err)

	// p-09 is a second quarterback
	_, err = h.orch.Enqueue(h.ctx(), "p-09")
	require.NoError(t, err)
	_, err = h.orch.DraftFromQueue(h.ctx())
	assert.ErrorIs(t, err, ErrNoEligible)
	assert.Equal(t, 3, h.state().CurrentPickNumber)

	_, err = h.orch.Enqueue(h.ctx(), "p-03")
	require.NoError(t, err)
	pick, err := h.orch.DraftFromQueue(h.ctx())
	require.NoError(t, err)
	assert.Equal(t, "p-03", pick.Player.ID)
	assert.Equal(t, 3, pick.PickNumber)
	assert.Equal(t, "queue", pickMade(t, h.rec.OfType(events.EventTypePickMade)[2]).Source)

	q, err := h.orch.Queue(h.ctx())
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "p-09", q[0].ID)
}

func TestOrchestrator_PauseBlocksPicks(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 0))
	h.start()
	h.advance(time.Second)
	h.waitFor(func(s State) bool { return s.Timer.Seconds == 1 })

	status, err := h.orch.TogglePause(h.ctx())
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusPaused, status)

	_, err = h.orch.DraftPlayer(h.ctx(), "p-01")
	assert.ErrorIs(t, err, ErrNotActive)
	s := h.state()
	assert.Equal(t, timer.StatePaused, s.Timer.State)
	assert.Equal(t, 1, s.Timer.Seconds)

	status, err = h.orch.TogglePause(h.ctx())
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusActive, status)
	assert.True(t, h.state().Timer.IsRunning)

	assert.Len(t, h.rec.OfType(events.EventTypeDraftPaused), 1)
	assert.Len(t, h.rec.OfType(events.EventTypeDraftResumed), 1)
}

func TestOrchestrator_ResumeReplaysExpiryFromPause(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 0))
	h.start()

	h.tickSeconds(2)
	h.waitFor(func(s State) bool { return s.Timer.IsExpired })

	_, err := h.orch.TogglePause(h.ctx())
	require.NoError(t, err)

	// the grace expiry still fires while paused but no pick is made
	h.advance(time.Second)
	s := h.waitFor(func(s State) bool { return s.Timer.ExpireFired })
	assert.Equal(t, 1, s.CurrentPickNumber)
	assert.Empty(t, s.Picks)

	_, err = h.orch.TogglePause(h.ctx())
	require.NoError(t, err)
	s = h.waitFor(func(s State) bool { return s.CurrentPickNumber == 2 })
	require.Len(t, s.Picks, 1)
	assert.Equal(t, "p0", s.Picks[0].ParticipantID)
}

func TestOrchestrator_AdoptsRemotePicks(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 1))
	h.start()

	name, _ := json.Marshal("Player 07")
	require.NoError(t, h.store.AppendPick(h.ctx(), h.orch.RoomID(), models.RawPick{
		PickNumber:    1,
		Player:        name,
		ParticipantID: "p0",
		Timestamp:     h.clock.Now(),
	}))

	s := h.waitFor(func(s State) bool { return s.CurrentPickNumber == 2 })
	require.Len(t, s.Picks, 1)
	assert.Equal(t, "p-07", s.Picks[0].Player.ID)
	assert.True(t, s.IsMyTurn)
	assert.NotEmpty(t, h.rec.OfType(events.EventTypeLedgerSynced))
	assert.Len(t, h.rec.OfType(events.EventTypePickStarted), 2)
}

func (h *harness) appendRemote(pickNumber int, name, participantID string) {
	h.t.Helper()
	raw, _ := json.Marshal(name)
	require.NoError(h.t, h.store.AppendPick(h.ctx(), h.orch.RoomID(), models.RawPick{
		PickNumber:    pickNumber,
		Player:        raw,
		ParticipantID: participantID,
		Timestamp:     h.clock.Now(),
	}))
}

func TestOrchestrator_UnresolvableRemotePickLeavesSlotVacant(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 1))
	h.start()

	h.appendRemote(1, "Player 07", "p0")
	h.appendRemote(2, "Nobody In Pool", "p1")
	s := h.waitFor(func(s State) bool { return s.CurrentPickNumber == 3 })
	require.Len(t, s.Picks, 1)
	require.NotNil(t, s.CurrentParticipant)
	assert.Equal(t, "p2", s.CurrentParticipant.ID)

	h.tickSeconds(2)
	s = h.waitFor(func(s State) bool { return s.CurrentPickNumber == 4 })
	require.Len(t, s.Picks, 2)
	assert.Equal(t, 1, s.Picks[0].PickNumber)
	assert.Equal(t, 3, s.Picks[1].PickNumber)
	assert.Equal(t, "p-01", s.Picks[1].Player.ID)
	assert.Equal(t, "p2", s.Picks[1].ParticipantID)

	require.Eventually(t, func() bool {
		return h.store.Snapshot(h.orch.RoomID()).CurrentPickNumber == 4
	}, time.Second, 2*time.Millisecond)
}

func TestOrchestrator_RemoteGapResumesAtOpenSlot(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 1))
	h.start()

	h.appendRemote(1, "Player 07", "p0")
	h.appendRemote(3, "Player 05", "p2")
	s := h.waitFor(func(s State) bool { return s.CurrentPickNumber == 2 && len(s.Picks) == 1 })
	assert.True(t, s.IsMyTurn)
	assert.Equal(t, models.DraftStatusActive, s.Status)

	pick, err := h.orch.DraftPlayer(h.ctx(), "p-02")
	require.NoError(t, err)
	assert.Equal(t, 2, pick.PickNumber)

	s = h.waitFor(func(s State) bool { return s.CurrentPickNumber == 4 && len(s.Picks) == 3 })
	assert.Equal(t, []string{"p-07", "p-02", "p-05"}, []string{s.Picks[0].Player.ID, s.Picks[1].Player.ID, s.Picks[2].Player.ID})
	require.NotNil(t, s.CurrentParticipant)
	assert.Equal(t, "p2", s.CurrentParticipant.ID, "pick 4 opens the reversed second round")
}

func TestOrchestrator_RollsBackRejectedAppend(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 0), func(cfg *Config) {
		cfg.Remote = failingStore{remote.NewMemoryStore()}
	})
	h.start()

	pick, err := h.orch.DraftPlayer(h.ctx(), "p-01")
	require.NoError(t, err)
	assert.Equal(t, 1, pick.PickNumber)

	s := h.waitFor(func(s State) bool { return s.CurrentPickNumber == 1 && len(s.Picks) == 0 })
	assert.True(t, s.IsMyTurn)
	assert.True(t, s.Timer.IsRunning)
}

func TestOrchestrator_CompletesAfterLastPick(t *testing.T) {
	h := newHarness(t, testRoom(2, 1, 0))
	h.start()

	_, err := h.orch.DraftPlayer(h.ctx(), "p-01")
	require.NoError(t, err)

	h.tickSeconds(2)
	s := h.waitFor(func(s State) bool { return s.Status == models.DraftStatusCompleted })
	assert.Len(t, s.Picks, 2)
	assert.Nil(t, s.CurrentParticipant)
	assert.Equal(t, 1, s.CurrentRound)
	assert.Equal(t, timer.StateIdle, s.Timer.State)
	assert.Len(t, h.rec.OfType(events.EventTypeDraftCompleted), 1)

	_, err = h.orch.DraftPlayer(h.ctx(), "p-05")
	assert.ErrorIs(t, err, ErrDraftComplete)
}

func TestOrchestrator_Restart(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 0))
	h.start()
	_, err := h.orch.DraftPlayer(h.ctx(), "p-01")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(h.store.Snapshot(h.orch.RoomID()).Picks) == 1
	}, time.Second, 2*time.Millisecond)

	require.NoError(t, h.orch.Restart(h.ctx()))
	s := h.state()
	assert.Equal(t, models.DraftStatusWaiting, s.Status)
	assert.Equal(t, 1, s.CurrentPickNumber)
	assert.Empty(t, s.Picks)
	assert.Nil(t, s.StartedAt)
	assert.Equal(t, timer.StateIdle, s.Timer.State)

	require.Eventually(t, func() bool {
		return len(h.store.Snapshot(h.orch.RoomID()).Picks) == 0
	}, time.Second, 2*time.Millisecond)

	h.start()
	pick, err := h.orch.DraftPlayer(h.ctx(), "p-01")
	require.NoError(t, err)
	assert.Equal(t, 1, pick.PickNumber)
}

func TestOrchestrator_QueueOperations(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 0))

	for _, id := range []string{"p-01", "p-02", "p-03"} {
		ok, err := h.orch.Enqueue(h.ctx(), id)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := h.orch.Enqueue(h.ctx(), "p-01")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.orch.Enqueue(h.ctx(), "nobody")
	assert.ErrorIs(t, err, ledger.ErrUnknownPlayer)

	ok, err = h.orch.ReorderQueue(h.ctx(), 2, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.orch.ReorderQueue(h.ctx(), 0, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	q, err := h.orch.Queue(h.ctx())
	require.NoError(t, err)
	require.Len(t, q, 3)
	for i, want := range []string{"p-03", "p-01", "p-02"} {
		assert.Equal(t, want, q[i].ID)
		assert.Equal(t, i, q[i].QueuePosition)
	}

	queued, err := h.orch.ToggleQueue(h.ctx(), "p-01")
	require.NoError(t, err)
	assert.False(t, queued)
	queued, err = h.orch.ToggleQueue(h.ctx(), "p-01")
	require.NoError(t, err)
	assert.True(t, queued)

	ok, err = h.orch.Dequeue(h.ctx(), "p-02")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, h.orch.ClearQueue(h.ctx()))
	q, err = h.orch.Queue(h.ctx())
	require.NoError(t, err)
	assert.Empty(t, q)

	// three enqueues, reorder, two toggles, dequeue, clear
	assert.Len(t, h.rec.OfType(events.EventTypeQueueUpdated), 8)
}

func TestOrchestrator_QueueRejectsDraftedPlayer(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 0))
	h.start()
	_, err := h.orch.DraftPlayer(h.ctx(), "p-01")
	require.NoError(t, err)

	_, err = h.orch.Enqueue(h.ctx(), "p-01")
	assert.ErrorIs(t, err, ledger.ErrAlreadyDrafted)
}

func TestOrchestrator_NoLocalUser(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, noUser))

	_, err := h.orch.Enqueue(h.ctx(), "p-01")
	assert.ErrorIs(t, err, ErrNoLocalUser)
	_, err = h.orch.DraftFromQueue(h.ctx())
	assert.ErrorIs(t, err, ErrNoLocalUser)

	s := h.state()
	assert.False(t, s.IsMyTurn)
	assert.Zero(t, s.PicksUntilMyTurn)

	h.start()
	pick, err := h.orch.ForcePick(h.ctx())
	require.NoError(t, err)
	assert.Equal(t, "p0", pick.ParticipantID)
}

func TestOrchestrator_LoadsPoolBeforeWaiting(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 0), func(cfg *Config) {
		cfg.Pool = pool.New(0)
		cfg.Provider = pool.StaticProvider(testPlayers(12))
	})

	s := h.waitFor(func(s State) bool { return s.Status == models.DraftStatusWaiting })
	assert.False(t, s.IsLoading)
	assert.Empty(t, s.Error)

	view, err := h.orch.AvailablePlayers(h.ctx(), pool.Filter{Positions: []models.Position{models.PositionQB}})
	require.NoError(t, err)
	assert.Equal(t, 12, view.TotalAvailable)
	assert.Len(t, view.Players, 3)
}

func TestOrchestrator_LeaveDraftStopsRoom(t *testing.T) {
	h := newHarness(t, testRoom(3, 2, 0))
	h.start()

	require.NoError(t, h.orch.LeaveDraft(h.ctx()))
	select {
	case <-h.orch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("room did not stop")
	}

	_, err := h.orch.State(h.ctx())
	assert.ErrorIs(t, err, ErrClosed)
}
