// Command seed_pool loads a projections file into the draft_players table
// and optionally overlays ADP from a feed.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/dynasty/go/internal/dbconfig"
	"github.com/mcdev12/dynasty/go/internal/draft/pool"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// 1) Load projections
	path := getEnv("POOL_PROJECTIONS_PATH", "go/internal/assets/projections.csv")
	players, err := pool.FileProvider{Path: path}.Players(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read projections: %v\n", err)
		os.Exit(1)
	}

	// 2) Overlay ADP when a feed is configured
	if url := os.Getenv("ADP_URL"); url != "" {
		adp, err := pool.NewADPClient(url, getEnv("ADP_ENDPOINT", "/adp")).ADP(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fetch adp: %v\n", err)
			os.Exit(1)
		}
		matched := 0
		for i := range players {
			if v, ok := adp[players[i].ID]; ok {
				players[i].ADP = v
				matched++
			}
		}
		fmt.Printf("ADP overlay: feed=%d matched=%d\n", len(adp), matched)
	}

	// 3) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	db, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 4) Seed players
	repo := pool.NewRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ensure schema: %v\n", err)
		os.Exit(1)
	}
	affected, err := repo.Upsert(ctx, players)
	if err != nil {
		fmt.Fprintf(os.Stderr, "upsert players: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Draft pool seed: total=%d upserted=%d\n", len(players), affected)
}
