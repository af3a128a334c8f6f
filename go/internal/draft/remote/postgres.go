package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/mcdev12/dynasty/go/internal/models"
	"github.com/mcdev12/dynasty/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"
)

// PostgresSchema creates the tables used by PostgresStore.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS draft_rooms (
    id           TEXT PRIMARY KEY,
    current_pick INTEGER NOT NULL DEFAULT 1,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS draft_room_picks (
    room_id        TEXT NOT NULL REFERENCES draft_rooms(id) ON DELETE CASCADE,
    pick_number    INTEGER NOT NULL,
    player         JSONB,
    participant_id TEXT,
    picker         TEXT,
    picked_at      TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (room_id, pick_number)
);
`

const uniqueViolation = "23505"

type PostgresConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to reload in case a notification was missed
	PingInterval     time.Duration
}

func DefaultPostgresConfig(databaseURL string) PostgresConfig {
	return PostgresConfig{
		DatabaseURL:      databaseURL,
		NotifyChannel:    "draft_room_picks",
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
	}
}

// PostgresStore keeps room ledgers in Postgres. Writers notify on
// cfg.NotifyChannel with the room id as payload and watchers reload the room.
type PostgresStore struct {
	db    *sql.DB
	clock clockwork.Clock
	cfg   PostgresConfig
}

func NewPostgresStore(db *sql.DB, clock clockwork.Clock, cfg PostgresConfig) *PostgresStore {
	return &PostgresStore{db: db, clock: clock, cfg: cfg}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("failed to create remote ledger schema: %w", err)
	}
	return nil
}

// Load reads the current snapshot of a room.
func (s *PostgresStore) Load(ctx context.Context, roomID string) (Snapshot, error) {
	snap := Snapshot{RoomID: roomID, CurrentPickNumber: 1}

	err := s.db.QueryRowContext(ctx,
		`SELECT current_pick FROM draft_rooms WHERE id = $1`, roomID,
	).Scan(&snap.CurrentPickNumber)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("failed to load room %s: %w", roomID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pick_number, player, participant_id, picker, picked_at
		FROM draft_room_picks
		WHERE room_id = $1
		ORDER BY pick_number`, roomID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load picks for room %s: %w", roomID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pick          models.RawPick
			player        pqtype.NullRawMessage
			participantID sql.NullString
			picker        sql.NullString
		)
		if err := rows.Scan(&pick.PickNumber, &player, &participantID, &picker, &pick.Timestamp); err != nil {
			return Snapshot{}, fmt.Errorf("failed to scan pick: %w", err)
		}
		if player.Valid {
			pick.Player = player.RawMessage
		}
		pick.ParticipantID = sqlutil.FromSqlString(participantID, "")
		pick.Picker = sqlutil.FromSqlString(picker, "")
		snap.Picks = append(snap.Picks, pick)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read picks: %w", err)
	}
	return snap, nil
}

func (s *PostgresStore) AppendPick(ctx context.Context, roomID string, pick models.RawPick) error {
	err := sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		if err := upsertRoom(ctx, tx, roomID); err != nil {
			return err
		}

		player := pqtype.NullRawMessage{RawMessage: pick.Player, Valid: len(pick.Player) > 0}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO draft_room_picks (room_id, pick_number, player, participant_id, picker, picked_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			roomID, pick.PickNumber, player,
			sqlutil.ToSqlString(pick.ParticipantID), sqlutil.ToSqlString(pick.Picker),
			pick.Timestamp.UTC(),
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return fmt.Errorf("room %s pick %d: %w", roomID, pick.PickNumber, ErrPickTaken)
			}
			return fmt.Errorf("failed to insert pick: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE draft_rooms
			SET current_pick = GREATEST(current_pick, $2), updated_at = now()
			WHERE id = $1`, roomID, pick.PickNumber+1)
		if err != nil {
			return fmt.Errorf("failed to advance current pick: %w", err)
		}
		return s.notify(ctx, tx, roomID)
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("room_id", roomID).
		Int("pick_number", pick.PickNumber).
		Msg("appended pick to remote ledger")
	return nil
}

func (s *PostgresStore) Reset(ctx context.Context, roomID string) error {
	return sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		if err := upsertRoom(ctx, tx, roomID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM draft_room_picks WHERE room_id = $1`, roomID); err != nil {
			return fmt.Errorf("failed to delete picks: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE draft_rooms SET current_pick = 1, updated_at = now() WHERE id = $1`, roomID,
		); err != nil {
			return fmt.Errorf("failed to reset current pick: %w", err)
		}
		return s.notify(ctx, tx, roomID)
	})
}

func upsertRoom(ctx context.Context, tx *sql.Tx, roomID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO draft_rooms (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, roomID)
	if err != nil {
		return fmt.Errorf("failed to upsert room: %w", err)
	}
	return nil
}

// notify is delivered when the transaction commits.
func (s *PostgresStore) notify(ctx context.Context, tx *sql.Tx, roomID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, s.cfg.NotifyChannel, roomID); err != nil {
		return fmt.Errorf("failed to notify: %w", err)
	}
	return nil
}

func (s *PostgresStore) Watch(ctx context.Context, roomID string) (<-chan Snapshot, error) {
	l := pq.NewListener(
		s.cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Str("room_id", roomID).Msg("listener event")
			}
		},
	)
	if err := l.Listen(s.cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	snap, err := s.Load(ctx, roomID)
	if err != nil {
		_ = l.Close()
		return nil, err
	}

	ch := make(chan Snapshot, 1)
	sendLatest(ch, snap)

	log.Info().
		Str("room_id", roomID).
		Str("channel", s.cfg.NotifyChannel).
		Msg("watching remote ledger")

	go s.watch(ctx, roomID, l, ch)
	return ch, nil
}

func (s *PostgresStore) watch(ctx context.Context, roomID string, l *pq.Listener, ch chan Snapshot) {
	pingTicker := s.clock.NewTicker(s.cfg.PingInterval)
	fallbackTicker := s.clock.NewTicker(s.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()
	defer close(ch)
	defer func() {
		if err := l.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close listener")
		}
	}()

	reload := func() {
		snap, err := s.Load(ctx, roomID)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Str("room_id", roomID).Msg("failed to reload remote ledger")
			}
			return
		}
		sendLatest(ch, snap)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case note := <-l.Notify:
			// nil means the connection was re-established; reload in case a
			// notification was lost
			if note == nil || note.Extra == roomID {
				reload()
			}
		case <-fallbackTicker.Chan():
			reload()
		case <-pingTicker.Chan():
			if err := l.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}
