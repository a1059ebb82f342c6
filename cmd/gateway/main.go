package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	server "holidaze/internal/adapters/http_server"
	"holidaze/internal/adapters/market"
	"holidaze/internal/adapters/observability"
	redisad "holidaze/internal/adapters/redis"
	"holidaze/internal/adapters/session"
	"holidaze/internal/app"
	"holidaze/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// persisted session
	sessions, err := session.Open(cfg.SessionDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.SessionDir).Msg("session store open failed")
	}
	defer sessions.Close()

	// deps
	client, err := market.New(cfg.MarketBase, cfg.MarketRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize marketplace client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewQueryService(client, cache, cfg.CacheTTL)
	c := app.NewCommandService(client, sessions, cache)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, C: c, Sessions: sessions})

	log.Info().Str("addr", cfg.HTTPAddr).Str("market", cfg.MarketBase).Msg("gateway listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
