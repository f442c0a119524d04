package main

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"tripsync/internal/adapters/catalog"
	"tripsync/internal/adapters/observability"
	redisad "tripsync/internal/adapters/redis"
	"tripsync/internal/app"
	"tripsync/internal/shared"
)

// featuredTerms are warmed when WARM_TERMS is not set. The empty term is the
// featured set shown before anybody types.
var featuredTerms = []string{"", "paris", "rome", "london", "tokyo", "new york", "barcelona"}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	terms := cfg.WarmTerms
	if len(terms) == 0 {
		terms = featuredTerms
	}
	workers := cfg.WarmWorkers
	if workers < 1 {
		workers = 1
	}
	log.Info().
		Str("base", cfg.CatalogBase).
		Int("workers", workers).
		Int("terms", len(terms)).
		Msg("warmer starting")

	if cfg.RedisAddr == "" {
		log.Fatal().Msg("REDIS_ADDR is required to warm the cache")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}

	client, err := catalog.New(cfg.CatalogBase, cfg.CatalogRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize catalog client")
	}
	warm := app.NewWarmService(app.NewCatalogQueries(client, client, cache, cfg.CacheTTL))

	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg     sync.WaitGroup
		places atomic.Int64
		failed atomic.Int64
	)
	for _, term := range terms {
		term := term
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			n, err := warm.WarmTerm(ctx, term)
			places.Add(int64(n))
			if err != nil {
				failed.Add(1)
				log.Warn().Str("term", term).Int("places", n).Err(err).Msg("warm incomplete")
				return
			}
			log.Info().Str("term", term).Int("places", n).Msg("warm ok")
		}()
	}

	wg.Wait()
	log.Info().Int64("places", places.Load()).Int64("failed_terms", failed.Load()).Msg("warming completed")
}
