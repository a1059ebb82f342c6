package main

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"holidaze/internal/adapters/market"
	"holidaze/internal/adapters/observability"
	redisad "holidaze/internal/adapters/redis"
	"holidaze/internal/app"
	"holidaze/internal/domain"
	"holidaze/internal/shared"
)

// Pre-warms the redis view cache: catalog first, then each venue's detail
// view with bounded concurrency, so the first page loads after a deploy hit
// warm entries instead of the remote service.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.MarketBase).
		Int("workers", cfg.WarmWorkers).
		Int("limit", cfg.WarmLimit).
		Msg("warmer starting")

	client, err := market.New(cfg.MarketBase, cfg.MarketRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize marketplace client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewQueryService(client, cache, cfg.CacheTTL)

	view, err := q.Catalog(ctx, "")
	if err != nil {
		log.Fatal().Err(err).Msg("catalog warm failed")
	}
	log.Info().Int("venues", len(view.Items)).Msg("catalog warmed")

	items := view.Items
	if len(items) > cfg.WarmLimit {
		items = items[:cfg.WarmLimit]
	}

	sem := semaphore.NewWeighted(int64(cfg.WarmWorkers))
	var wg sync.WaitGroup

	for _, v := range items {
		id := v.ID

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(venueID string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			if _, err := q.VenueDetail(ctx, venueID, domain.Session{}); err != nil {
				log.Warn().Str("id", venueID).Err(err).Msg("warm failed")
				return
			}
			log.Info().Str("id", venueID).Msg("warm ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("warming completed")
}
