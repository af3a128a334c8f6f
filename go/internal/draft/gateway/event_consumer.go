package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/draft/events"
)

// EventConsumerConfig configures the relay consumer on the room event stream.
type EventConsumerConfig struct {
	StreamName        string
	SubjectFilter     string
	MaxDeliver        int
	AckWait           time.Duration
	MaxAckPending     int
	InactiveThreshold time.Duration
}

func DefaultEventConsumerConfig() EventConsumerConfig {
	return EventConsumerConfig{
		StreamName:        "DRAFT_EVENTS",
		SubjectFilter:     "draft.events.>",
		MaxDeliver:        5,
		AckWait:           30 * time.Second,
		MaxAckPending:     100,
		InactiveThreshold: 5 * time.Minute,
	}
}

// EventConsumer relays room events published to JetStream by other
// processes into a local publisher, usually the ConnectionManager. Every
// gateway gets its own ephemeral consumer and sees every event.
type EventConsumer struct {
	target   events.Publisher
	consumer jetstream.Consumer
	config   EventConsumerConfig
}

func NewEventConsumer(ctx context.Context, js jetstream.JetStream, target events.Publisher, config EventConsumerConfig) (*EventConsumer, error) {
	stream, err := js.Stream(ctx, config.StreamName)
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
		Description:       "Draft gateway websocket relay",
		FilterSubject:     config.SubjectFilter,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		AckPolicy:         jetstream.AckExplicitPolicy,
		MaxDeliver:        config.MaxDeliver,
		AckWait:           config.AckWait,
		MaxAckPending:     config.MaxAckPending,
		ReplayPolicy:      jetstream.ReplayInstantPolicy,
		InactiveThreshold: config.InactiveThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	log.Info().
		Str("stream", config.StreamName).
		Str("filter", config.SubjectFilter).
		Msg("created JetStream relay consumer")

	return &EventConsumer{target: target, consumer: consumer, config: config}, nil
}

// Start relays events until ctx is done.
func (ec *EventConsumer) Start(ctx context.Context) error {
	messageCh := make(chan jetstream.Msg, 100)

	consumeCtx, err := ec.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := ec.processMessage(ctx, msg); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to relay event")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

func (ec *EventConsumer) processMessage(ctx context.Context, msg jetstream.Msg) error {
	var event events.DraftEvent
	if err := sonic.Unmarshal(msg.Data(), &event); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if event.RoomID == "" || event.Type == "" {
		return fmt.Errorf("incomplete event envelope on %s", msg.Subject())
	}
	if err := ec.target.Publish(ctx, event); err != nil {
		return fmt.Errorf("relay %s: %w", event.Type, err)
	}
	log.Debug().
		Str("event_id", event.ID).
		Str("room_id", event.RoomID).
		Str("event_type", string(event.Type)).
		Msg("event relayed")
	return nil
}

// Info returns the relay consumer's state.
func (ec *EventConsumer) Info(ctx context.Context) (*jetstream.ConsumerInfo, error) {
	return ec.consumer.Info(ctx)
}
