package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"places_ranker/internal/adapters/gmaps"
	server "places_ranker/internal/adapters/http_server"
	"places_ranker/internal/adapters/observability"
	"places_ranker/internal/app"
	"places_ranker/internal/report"
	"places_ranker/internal/shared"
)

func main() {
	cfg, err := shared.Load(os.Getenv("CONFIG_FILE"))

	// console in dev, JSON otherwise
	log.Logger = observability.NewLogger(cfg.AppEnv, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	client, err := gmaps.New(cfg.BaseURL, cfg.APIKey, cfg.GatewayRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places client")
	}
	gw := gmaps.NewGuarded(client, 3, 30*time.Second)

	svc := app.NewRankingService(gw, app.Settings{
		Origin:       cfg.Origin,
		RadiusMeters: cfg.RadiusMeters,
		Prior:        cfg.Prior(),
		Cost:         cfg.CostModel(),
	})

	srv := server.New(log.Logger, 30*time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		R:     svc,
		Sem:   semaphore.NewWeighted(int64(max(cfg.MaxInflight, 1))),
		Table: report.Table{NameWidth: cfg.NameWidth},
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("origin", cfg.Origin.String()).
		Str("api_key", cfg.MaskedKey()).
		Int("max_inflight", cfg.MaxInflight).
		Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
