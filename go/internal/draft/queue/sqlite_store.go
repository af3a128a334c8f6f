package queue

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"

	"github.com/mcdev12/dynasty/go/internal/models"
)

const createQueueTable = `
CREATE TABLE IF NOT EXISTS draft_queue_entries (
	room_id        TEXT    NOT NULL,
	participant_id TEXT    NOT NULL,
	queue_position INTEGER NOT NULL,
	player_id      TEXT    NOT NULL,
	player         TEXT    NOT NULL,
	queued_at      INTEGER NOT NULL,
	PRIMARY KEY (room_id, participant_id, queue_position)
)`

// SQLiteConfig configures the on-disk queue store.
type SQLiteConfig struct {
	Path        string
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns WAL defaults for path.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{Path: path, BusyTimeout: 5 * time.Second}
}

// SQLiteStore persists queues to a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and creates if needed) the queue database.
func OpenSQLiteStore(ctx context.Context, cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create queue store directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping queue store: %w", err)
	}
	if _, err := db.ExecContext(ctx, createQueueTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create queue table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, key Key) ([]models.QueuedPlayer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player, queued_at
		FROM draft_queue_entries
		WHERE room_id = ? AND participant_id = ?
		ORDER BY queue_position`, key.RoomID, key.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue %s: %w", key, err)
	}
	defer rows.Close()

	var items []models.QueuedPlayer
	for rows.Next() {
		var (
			payload  string
			queuedAt int64
		)
		if err := rows.Scan(&payload, &queuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		var player models.DraftPlayer
		if err := sonic.UnmarshalString(payload, &player); err != nil {
			return nil, fmt.Errorf("failed to decode queued player: %w", err)
		}
		items = append(items, models.QueuedPlayer{
			DraftPlayer:   player,
			QueuedAt:      time.UnixMilli(queuedAt).UTC(),
			QueuePosition: len(items),
		})
	}
	return items, rows.Err()
}

// Save replaces the stored queue for key in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, key Key, items []models.QueuedPlayer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin queue transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM draft_queue_entries WHERE room_id = ? AND participant_id = ?`,
		key.RoomID, key.ParticipantID); err != nil {
		return fmt.Errorf("failed to clear queue %s: %w", key, err)
	}

	for i, q := range items {
		payload, err := sonic.MarshalString(q.DraftPlayer)
		if err != nil {
			return fmt.Errorf("failed to encode queued player %s: %w", q.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO draft_queue_entries (room_id, participant_id, queue_position, player_id, player, queued_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			key.RoomID, key.ParticipantID, i, q.ID, payload, q.QueuedAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert queue entry %s: %w", q.ID, err)
		}
	}
	return tx.Commit()
}
