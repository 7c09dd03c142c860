package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dealdash/backend/internal/config"
	"github.com/dealdash/backend/internal/fetch"
	httpapi "github.com/dealdash/backend/internal/http"
	"github.com/dealdash/backend/internal/sheets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Includes the missing-credentials case: nothing can be fetched
		// without a service account, so bail before serving.
		log.Fatal().Err(err).Msg("failed to load config")
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "deals-dashboard").Logger()

	ctx := context.Background()
	authClient, err := sheets.AuthenticatedClient(ctx, []byte(cfg.ServiceAccountJSON))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build sheets client")
	}

	source := sheets.NewClient(cfg.SpreadsheetKey, authClient, cfg.RequestsPerMinute, logger)
	fetcher := fetch.New(
		source,
		fetch.Names{
			Deals:       cfg.DealsSheet,
			Stages:      cfg.StagesSheet,
			StagesRange: cfg.StagesRange,
			Users:       cfg.UsersSheet,
		},
		fetch.DefaultRetryPolicy(cfg.MaxRetries, cfg.RetryDelay),
		fetch.NewCache(cfg.CacheTTL, nil),
		fetch.LogNotifier{Logger: logger},
	)

	router := httpapi.Router(cfg, fetcher, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
