package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty/go/internal/models"
	"github.com/mcdev12/dynasty/go/internal/natsconn"
)

func TestNew_ParsePayload(t *testing.T) {
	at := time.Date(2025, 8, 30, 18, 0, 0, 0, time.FixedZone("EDT", -4*3600))
	event, err := New("room1", EventTypePickMade, at, PickMadePayload{
		Pick:     models.DraftPick{PickNumber: 3, ParticipantID: "p2"},
		Source:   "adp",
		Forced:   true,
		NextPick: 4,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "room1", event.RoomID)
	assert.Equal(t, time.UTC, event.Timestamp.Location())

	payload, err := ParsePayload(event)
	require.NoError(t, err)
	made, ok := payload.(*PickMadePayload)
	require.True(t, ok)
	assert.Equal(t, 3, made.Pick.PickNumber)
	assert.True(t, made.Forced)
	assert.Equal(t, 4, made.NextPick)

	_, err = ParsePayload(DraftEvent{Type: "Bogus", Data: []byte(`{}`)})
	assert.Error(t, err)
}

func TestFanout_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a, b := &Recorder{}, &Recorder{}
	f := Fanout{a, PublisherFunc(func(context.Context, DraftEvent) error { return boom }), b}

	event, err := New("room1", EventTypeTimerTick, time.Now(), TimerTickPayload{TimeRemainingSec: 5})
	require.NoError(t, err)
	assert.ErrorIs(t, f.Publish(context.Background(), event), boom)
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.OfType(EventTypeTimerTick), 1)
	assert.Empty(t, b.OfType(EventTypePickMade))
}

func TestJetStreamPublisher(t *testing.T) {
	ns, err := natsconn.StartEmbedded(natsconn.EmbeddedConfig{Port: -1, StoreDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(ns.Shutdown)

	nc, js, err := natsconn.Connect(natsconn.DefaultConfig(ns.ClientURL()))
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := DefaultJetStreamConfig()
	cfg.Storage = jetstream.MemoryStorage
	p, err := NewJetStreamPublisher(ctx, js, cfg)
	require.NoError(t, err)

	started, err := New("room1", EventTypeDraftStarted, time.Now(), DraftStartedPayload{TotalPicks: 24})
	require.NoError(t, err)
	tick, err := New("room1", EventTypeTimerTick, time.Now(), TimerTickPayload{TimeRemainingSec: 9})
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, started))
	require.NoError(t, p.Publish(ctx, tick))
	// same message id
	require.NoError(t, p.Publish(ctx, started))

	stream, err := js.Stream(ctx, cfg.StreamName)
	require.NoError(t, err)
	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.State.Msgs)

	msg, err := stream.GetLastMsgForSubject(ctx, p.Subject(started))
	require.NoError(t, err)
	assert.Equal(t, "draft.events.room1.DraftStarted", msg.Subject)
	assert.Equal(t, string(EventTypeDraftStarted), msg.Header.Get("Event-Type"))
}
