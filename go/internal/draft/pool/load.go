package pool

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Load fills p from provider and overlays feed when given. Failures are
// recorded on the pool as well as returned.
func Load(ctx context.Context, p *Pool, provider Provider, feed ADPFeed) error {
	p.SetLoading(true)
	defer p.SetLoading(false)

	players, err := provider.Players(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load player pool: %w", err)
		p.SetError(err)
		return err
	}
	p.SetReference(players)
	p.SetError(nil)
	log.Info().Int("players", len(players)).Msg("player pool loaded")

	if feed == nil {
		return nil
	}
	return RefreshADP(ctx, p, feed)
}

// RefreshADP merges the latest feed values into p. A feed outage leaves
// the previous values in place.
func RefreshADP(ctx context.Context, p *Pool, feed ADPFeed) error {
	adp, err := feed.ADP(ctx)
	if err != nil {
		err = fmt.Errorf("failed to refresh adp: %w", err)
		p.SetError(err)
		return err
	}
	p.MergeADP(adp)
	p.SetError(nil)
	log.Debug().Int("players", len(adp)).Msg("adp merged")
	return nil
}
