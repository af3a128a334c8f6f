// Package config loads the draft service configuration from a YAML file
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/dynasty/go/internal/dbconfig"
	"github.com/mcdev12/dynasty/go/internal/models"
)

const (
	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreJetStream = "jetstream"

	PoolSourceFile     = "file"
	PoolSourcePostgres = "postgres"

	StrategyDefault = "default"
	StrategyRandom  = "random"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	NATS     NATSConfig     `yaml:"nats"`
	Database DatabaseConfig `yaml:"database"`
	Store    StoreConfig    `yaml:"store"`
	Queue    QueueConfig    `yaml:"queue"`
	Pool     PoolConfig     `yaml:"pool"`
	Events   EventsConfig   `yaml:"events"`
	Rooms    []RoomConfig   `yaml:"rooms" validate:"dive"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" validate:"required,numeric"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	DevControls     bool          `yaml:"dev_controls"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `yaml:"pretty"`
}

// NATSConfig points at a NATS server, or runs one in process when Embedded
// is set.
type NATSConfig struct {
	URL      string `yaml:"url"`
	Embedded bool   `yaml:"embedded"`
	Port     int    `yaml:"port"`
	StoreDir string `yaml:"store_dir"`
}

// NATSEnabled reports whether any component needs NATS.
func (c Config) NATSEnabled() bool {
	return c.NATS.Embedded || c.NATS.URL != "" ||
		c.Store.Kind == StoreJetStream || c.Events.JetStream || c.Events.Relay
}

type DatabaseConfig struct {
	// URL overrides the DB_* environment settings.
	URL string `yaml:"url"`
}

// DSN returns the configured URL or the one built from DB_* variables.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return dbconfig.NewConfigFromEnv().DSN()
}

type StoreConfig struct {
	Kind         string        `yaml:"kind" validate:"oneof=memory postgres jetstream"`
	FallbackPoll time.Duration `yaml:"fallback_poll" validate:"min=0"`
	PingInterval time.Duration `yaml:"ping_interval" validate:"min=0"`
}

type QueueConfig struct {
	// SQLitePath persists queues; empty keeps them in memory.
	SQLitePath string `yaml:"sqlite_path"`
}

type PoolConfig struct {
	Source          string        `yaml:"source" validate:"oneof=file postgres"`
	ProjectionsPath string        `yaml:"projections_path" validate:"required_if=Source file"`
	RankingsPath    string        `yaml:"rankings_path"`
	Variance        float64       `yaml:"variance" validate:"min=0"`
	ADPURL          string        `yaml:"adp_url" validate:"omitempty,url"`
	ADPEndpoint     string        `yaml:"adp_endpoint"`
	ADPRefresh      time.Duration `yaml:"adp_refresh" validate:"min=0"`
}

type EventsConfig struct {
	// JetStream also publishes room events to the DRAFT_EVENTS stream.
	JetStream bool `yaml:"jetstream"`
	// Relay feeds websocket clients from the stream instead of local rooms.
	Relay bool `yaml:"relay"`
}

// RoomConfig describes a room hosted by this process.
type RoomConfig struct {
	ID           string               `yaml:"id" validate:"omitempty,uuid"`
	Name         string               `yaml:"name" validate:"required"`
	Settings     models.DraftSettings `yaml:"settings"`
	Participants []models.Participant `yaml:"participants" validate:"required,min=1,dive"`
	Strategy     string               `yaml:"strategy" validate:"omitempty,oneof=default random"`
	RandomWindow int                  `yaml:"random_window" validate:"min=0"`
	AutoStart    bool                 `yaml:"auto_start"`
}

// Default returns the settings used for anything the file leaves out.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Log:   LogConfig{Level: "info", Pretty: true},
		Store: StoreConfig{Kind: StoreMemory, FallbackPoll: 30 * time.Second, PingInterval: 90 * time.Second},
		Pool: PoolConfig{
			Source:      PoolSourceFile,
			Variance:    0.5,
			ADPEndpoint: "/adp",
			ADPRefresh:  5 * time.Minute,
		},
	}
}

// Load reads path over Default, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyRoomDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Port = getEnvAsInt("NATS_PORT", c.NATS.Port)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Store.Kind = getEnv("STORE_KIND", c.Store.Kind)
	c.Queue.SQLitePath = getEnv("QUEUE_SQLITE_PATH", c.Queue.SQLitePath)
	c.Pool.ProjectionsPath = getEnv("POOL_PROJECTIONS_PATH", c.Pool.ProjectionsPath)
	c.Pool.ADPURL = getEnv("ADP_URL", c.Pool.ADPURL)
}

func (c *Config) applyRoomDefaults() {
	defaults := models.DefaultDraftSettings()
	for i := range c.Rooms {
		s := &c.Rooms[i].Settings
		if s.TeamCount == 0 {
			s.TeamCount = len(c.Rooms[i].Participants)
		}
		if s.RosterSize == 0 {
			s.RosterSize = defaults.RosterSize
		}
		if s.PickTimeSeconds == 0 {
			s.PickTimeSeconds = defaults.PickTimeSeconds
		}
		if s.RosterLimits == nil {
			s.RosterLimits = defaults.RosterLimits
		}
		seatInOrder(c.Rooms[i].Participants)
		if c.Rooms[i].Strategy == "" {
			c.Rooms[i].Strategy = StrategyDefault
		}
	}
}

// seatInOrder assigns draft positions by list order when the file gives
// none.
func seatInOrder(participants []models.Participant) {
	for _, p := range participants {
		if p.DraftPosition != 0 {
			return
		}
	}
	for i := range participants {
		participants[i].DraftPosition = i
	}
}

// Validate checks field rules and the room seating.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	var errs []error
	seen := make(map[uuid.UUID]string, len(c.Rooms))
	for _, rc := range c.Rooms {
		if err := rc.validateSeating(); err != nil {
			errs = append(errs, fmt.Errorf("room %q: %w", rc.Name, err))
		}
		id := rc.RoomID()
		if other, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("room %q: id collides with room %q", rc.Name, other))
		}
		seen[id] = rc.Name
	}
	if c.Events.Relay && len(c.Rooms) > 0 {
		errs = append(errs, errors.New("a relay gateway does not host rooms"))
	}
	return errors.Join(errs...)
}

func (rc RoomConfig) validateSeating() error {
	if len(rc.Participants) != rc.Settings.TeamCount {
		return fmt.Errorf("team_count %d does not match %d participants", rc.Settings.TeamCount, len(rc.Participants))
	}
	seats := make(map[int]bool, len(rc.Participants))
	ids := make(map[string]bool, len(rc.Participants))
	users := 0
	for _, p := range rc.Participants {
		if p.DraftPosition >= rc.Settings.TeamCount || seats[p.DraftPosition] {
			return fmt.Errorf("participant %q has invalid or duplicate draft_position %d", p.ID, p.DraftPosition)
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate participant id %q", p.ID)
		}
		seats[p.DraftPosition] = true
		ids[p.ID] = true
		if p.IsUser {
			users++
		}
	}
	if users > 1 {
		return fmt.Errorf("%d participants are marked as the user", users)
	}
	return nil
}

// RoomID returns the configured id, or one derived from the room name so
// it is stable across restarts.
func (rc RoomConfig) RoomID() uuid.UUID {
	if id, err := uuid.Parse(rc.ID); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("draft-room:"+rc.Name))
}

// DraftRoom builds the room in its loading state.
func (rc RoomConfig) DraftRoom() models.DraftRoom {
	participants := make([]models.Participant, len(rc.Participants))
	copy(participants, rc.Participants)
	return models.DraftRoom{
		ID:           rc.RoomID(),
		Name:         rc.Name,
		Status:       models.DraftStatusLoading,
		Settings:     rc.Settings,
		Participants: participants,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
