package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"tripsync/internal/adapters/catalog"
	"tripsync/internal/adapters/geoapify"
	server "tripsync/internal/adapters/http_server"
	"tripsync/internal/adapters/observability"
	redisad "tripsync/internal/adapters/redis"
	"tripsync/internal/app"
	"tripsync/internal/domain"
	"tripsync/internal/shared"
	mysqlrepo "tripsync/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.New(cfg.CatalogBase, cfg.CatalogRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize catalog client")
	}

	var geo domain.GeoProvider
	if cfg.GeoapifyKey != "" {
		g, err := geoapify.New(cfg.GeoapifyBase, cfg.GeoapifyKey, cfg.GeoapifyRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize geoapify client")
		}
		geo = g
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable; continuing, reads fall through to the catalog")
		}
		cache = rc
	}

	// users and bookings live in the catalog unless a MySQL store is configured
	var (
		users    domain.UserStore    = cat
		bookings domain.BookingStore = cat
	)
	if cfg.UserStore == "mysql" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo := mysqlrepo.New(db)
		users, bookings = repo, repo
	}

	q := app.NewCatalogQueries(cat, cat, cache, cfg.CacheTTL)
	search := app.NewSearchService(q, geo)
	feeds := app.NewFeedRegistry(search)

	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := feeds.Sweep(cfg.FeedIdle); n > 0 {
					log.Debug().Int("dropped", n).Msg("idle search feeds swept")
				}
			}
		}
	}()

	// http
	srv := server.New(15 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Search:    search,
		Feeds:     feeds,
		Detail:    app.NewDetailService(q, q),
		Bookmarks: app.NewBookmarkService(users),
		Bookings:  app.NewBookingService(bookings, q, q, users),
		RadiusKm:  cfg.SearchRadiusKm,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("user_store", cfg.UserStore).Bool("external", geo != nil).
		Bool("cache", cache != nil).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
