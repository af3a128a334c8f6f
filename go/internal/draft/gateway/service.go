// Package gateway exposes draft rooms over HTTP and streams their events to
// websocket clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/mcdev12/dynasty/go/internal/draft/events"
	"github.com/mcdev12/dynasty/go/internal/draft/orchestrator"
)

// Service bundles the connection manager, the room API and an optional
// JetStream relay.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	handler           *Handler
	eventConsumer     *EventConsumer
}

type Config struct {
	Connection  ConnectionConfig
	DevControls bool
	// Relay feeds websocket clients from the JetStream event stream instead
	// of from rooms in this process.
	Relay          bool
	ConsumerConfig EventConsumerConfig
}

func DefaultConfig() Config {
	return Config{
		Connection:     DefaultConnectionConfig(),
		ConsumerConfig: DefaultEventConsumerConfig(),
	}
}

// NewService wires the gateway to hub. js is only used in relay mode.
func NewService(ctx context.Context, cfg Config, hub *orchestrator.Hub, clock clockwork.Clock, js jetstream.JetStream) (*Service, error) {
	cm := NewConnectionManager(cfg.Connection, clock)
	s := &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, hub),
		handler:           NewHandler(hub, cfg.DevControls),
	}

	if cfg.Relay {
		if js == nil {
			return nil, fmt.Errorf("relay mode requires JetStream")
		}
		// rooms live elsewhere, so there is no state to greet clients with
		s.wsHandler = NewWebSocketHandler(cm, nil)
		consumer, err := NewEventConsumer(ctx, js, cm, cfg.ConsumerConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.eventConsumer = consumer
	}
	return s, nil
}

// Publisher is where rooms in this process send their events.
func (s *Service) Publisher() events.Publisher {
	return s.connectionManager
}

// Start runs the gateway until ctx is done.
func (s *Service) Start(ctx context.Context) {
	log.Info().Bool("relay", s.eventConsumer != nil).Msg("starting draft gateway service")

	var wg conc.WaitGroup
	wg.Go(func() { s.connectionManager.Start(ctx) })
	if s.eventConsumer != nil {
		wg.Go(func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		})
	}
	wg.Wait()
	log.Info().Msg("draft gateway service stopped")
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.handler.RegisterRoutes(mux)
	log.Info().Msg("draft gateway routes registered")
}

func (s *Service) Stats() Stats {
	return s.connectionManager.Stats()
}
