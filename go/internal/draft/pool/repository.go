package pool

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// Repository stores the reference pool in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Players implements Provider.
func (r *Repository) Players(ctx context.Context) ([]models.DraftPlayer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, position, team, adp, projected_points, bye_week
		FROM draft_players
		ORDER BY adp NULLS LAST, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query draft players: %w", err)
	}
	defer rows.Close()

	var players []models.DraftPlayer
	for rows.Next() {
		var (
			p        models.DraftPlayer
			position string
			adp      *float64
			bye      *int32
		)
		if err := rows.Scan(&p.ID, &p.Name, &position, &p.Team, &adp, &p.ProjectedPoints, &bye); err != nil {
			return nil, fmt.Errorf("failed to scan draft player: %w", err)
		}
		pos, ok := models.ParsePosition(position)
		if !ok {
			continue
		}
		p.Position = pos
		if adp != nil {
			p.ADP = *adp
		}
		if bye != nil {
			p.ByeWeek = int(*bye)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read draft players: %w", err)
	}
	return players, nil
}

// Upsert writes players in a single batch and returns how many rows changed.
func (r *Repository) Upsert(ctx context.Context, players []models.DraftPlayer) (int64, error) {
	batch := &pgx.Batch{}
	for _, p := range players {
		var adp *float64
		if p.ADP > 0 {
			adp = &p.ADP
		}
		batch.Queue(`
			INSERT INTO draft_players (id, name, position, team, adp, projected_points, bye_week)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, 0))
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				position = EXCLUDED.position,
				team = EXCLUDED.team,
				adp = COALESCE(EXCLUDED.adp, draft_players.adp),
				projected_points = EXCLUDED.projected_points,
				bye_week = EXCLUDED.bye_week`,
			p.ID, p.Name, string(p.Position), p.Team, adp, p.ProjectedPoints, p.ByeWeek)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var affected int64
	for _, p := range players {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("failed to upsert player %s: %w", p.ID, err)
		}
		affected += tag.RowsAffected()
	}
	return affected, nil
}

// Schema creates the draft_players table.
const Schema = `
CREATE TABLE IF NOT EXISTS draft_players (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	position         TEXT NOT NULL,
	team             TEXT NOT NULL DEFAULT '',
	adp              DOUBLE PRECISION,
	projected_points DOUBLE PRECISION NOT NULL DEFAULT 0,
	bye_week         INTEGER
)`

// EnsureSchema creates the table if it is missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create draft_players: %w", err)
	}
	return nil
}
