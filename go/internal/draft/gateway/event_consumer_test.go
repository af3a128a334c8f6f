package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty/go/internal/draft/events"
	"github.com/mcdev12/dynasty/go/internal/natsconn"
)

func TestEventConsumer_RelaysPublishedEvents(t *testing.T) {
	ns, err := natsconn.StartEmbedded(natsconn.EmbeddedConfig{Port: -1, StoreDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(ns.Shutdown)

	nc, js, err := natsconn.Connect(natsconn.DefaultConfig(ns.ClientURL()))
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streamCfg := events.DefaultJetStreamConfig()
	streamCfg.Storage = jetstream.MemoryStorage
	publisher, err := events.NewJetStreamPublisher(ctx, js, streamCfg)
	require.NoError(t, err)

	rec := &events.Recorder{}
	consumer, err := NewEventConsumer(ctx, js, rec, DefaultEventConsumerConfig())
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, consumer.Start(ctx))
	}()

	event, err := events.New("room1", events.EventTypePickStarted, time.Now(), events.PickStartedPayload{PickNumber: 1, ParticipantID: "p0"})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, event))

	require.Eventually(t, func() bool {
		return len(rec.OfType(events.EventTypePickStarted)) == 1
	}, 5*time.Second, 10*time.Millisecond)

	got := rec.Events()[0]
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, "room1", got.RoomID)
	assert.JSONEq(t, string(event.Data), string(got.Data))

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
