package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/config"
	"github.com/mcdev12/dynasty/go/internal/draft/events"
	"github.com/mcdev12/dynasty/go/internal/draft/gateway"
	"github.com/mcdev12/dynasty/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty/go/internal/draft/pool"
	"github.com/mcdev12/dynasty/go/internal/draft/queue"
	"github.com/mcdev12/dynasty/go/internal/draft/remote"
	"github.com/mcdev12/dynasty/go/internal/natsconn"
)

type Services struct {
	Clock clockwork.Clock

	NATSServer *server.Server
	NATS       *nats.Conn
	JetStream  jetstream.JetStream
	DB         *sql.DB
	PlayerDB   *pgxpool.Pool

	Remote    remote.Store
	Queues    queue.Store
	Players   pool.Provider
	ADP       pool.ADPFeed
	Rankings  []string
	Publisher events.Publisher

	Hub     *orchestrator.Hub
	Gateway *gateway.Service

	closers []func()
}

func setupServices(ctx context.Context, cfg *config.Config) (_ *Services, err error) {
	// Wire up dependency injection chain
	// Connections → Stores → Hub → Gateway
	s := &Services{Clock: clockwork.NewRealClock()}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if err := s.setupNATS(cfg); err != nil {
		return nil, err
	}
	if err := s.setupRemote(ctx, cfg); err != nil {
		return nil, err
	}
	if err := s.setupQueues(ctx, cfg.Queue); err != nil {
		return nil, err
	}
	if err := s.setupPool(ctx, cfg); err != nil {
		return nil, err
	}

	s.Hub = orchestrator.NewHub(ctx)

	gwCfg := gateway.DefaultConfig()
	gwCfg.DevControls = cfg.Server.DevControls
	gwCfg.Relay = cfg.Events.Relay
	s.Gateway, err = gateway.NewService(ctx, gwCfg, s.Hub, s.Clock, s.JetStream)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	publishers := events.Fanout{s.Gateway.Publisher()}
	if cfg.Events.JetStream {
		jsPub, err := events.NewJetStreamPublisher(ctx, s.JetStream, events.DefaultJetStreamConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		publishers = append(publishers, jsPub)
	}
	s.Publisher = publishers
	return s, nil
}

func (s *Services) setupNATS(cfg *config.Config) error {
	if !cfg.NATSEnabled() {
		return nil
	}
	url := cfg.NATS.URL
	if cfg.NATS.Embedded {
		ns, err := natsconn.StartEmbedded(natsconn.EmbeddedConfig{Port: cfg.NATS.Port, StoreDir: cfg.NATS.StoreDir})
		if err != nil {
			return err
		}
		s.NATSServer = ns
		s.onClose(ns.Shutdown)
		url = ns.ClientURL()
	}

	nc, js, err := natsconn.Connect(natsconn.DefaultConfig(url))
	if err != nil {
		return err
	}
	s.NATS, s.JetStream = nc, js
	s.onClose(nc.Close)
	log.Info().Str("url", nc.ConnectedUrl()).Msg("connected to NATS")
	return nil
}

func (s *Services) setupRemote(ctx context.Context, cfg *config.Config) error {
	switch cfg.Store.Kind {
	case config.StorePostgres:
		dsn := cfg.Database.DSN()
		db, err := setupDatabase(ctx, dsn)
		if err != nil {
			return err
		}
		s.DB = db
		s.onClose(func() { db.Close() })

		pgCfg := remote.DefaultPostgresConfig(dsn)
		pgCfg.FallbackInterval = cfg.Store.FallbackPoll
		pgCfg.PingInterval = cfg.Store.PingInterval
		store := remote.NewPostgresStore(db, s.Clock, pgCfg)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		s.Remote = store
	case config.StoreJetStream:
		store, err := remote.NewJetStreamStore(ctx, s.JetStream, remote.DefaultJetStreamConfig())
		if err != nil {
			return fmt.Errorf("failed to create jetstream ledger store: %w", err)
		}
		s.Remote = store
	default:
		s.Remote = remote.NewMemoryStore()
	}
	log.Info().Str("kind", cfg.Store.Kind).Msg("ledger store ready")
	return nil
}

func (s *Services) setupQueues(ctx context.Context, cfg config.QueueConfig) error {
	if cfg.SQLitePath == "" {
		s.Queues = queue.NewMemoryStore()
		return nil
	}
	store, err := queue.OpenSQLiteStore(ctx, queue.DefaultSQLiteConfig(cfg.SQLitePath))
	if err != nil {
		return err
	}
	s.Queues = store
	s.onClose(func() { store.Close() })
	log.Info().Str("path", cfg.SQLitePath).Msg("queue store ready")
	return nil
}

func (s *Services) setupPool(ctx context.Context, cfg *config.Config) error {
	switch cfg.Pool.Source {
	case config.PoolSourcePostgres:
		pgPool, err := setupPlayerDB(ctx, cfg.Database.DSN())
		if err != nil {
			return err
		}
		s.PlayerDB = pgPool
		s.onClose(pgPool.Close)
		repo := pool.NewRepository(pgPool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		s.Players = repo
	default:
		s.Players = pool.FileProvider{Path: cfg.Pool.ProjectionsPath}
	}

	if cfg.Pool.ADPURL != "" {
		s.ADP = pool.NewADPClient(cfg.Pool.ADPURL, cfg.Pool.ADPEndpoint)
	}

	if cfg.Pool.RankingsPath != "" {
		rankings, err := loadRankings(cfg.Pool.RankingsPath)
		if err != nil {
			return err
		}
		s.Rankings = rankings
		log.Info().Int("players", len(rankings)).Msg("custom rankings loaded")
	}
	return nil
}

func loadRankings(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rankings: %w", err)
	}
	defer f.Close()
	entries, err := pool.ParseRankings(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rankings: %w", err)
	}
	return pool.RankingIDs(entries), nil
}

func (s *Services) onClose(fn func()) {
	s.closers = append(s.closers, fn)
}

// Close releases connections in reverse order of setup.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
