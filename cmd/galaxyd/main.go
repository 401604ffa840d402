package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agam1092005/multiGalaxy/internal/adapters/storage/memory"
	cfgpkg "github.com/agam1092005/multiGalaxy/internal/infrastructure/config"
	obs "github.com/agam1092005/multiGalaxy/internal/infrastructure/observability"
	"github.com/agam1092005/multiGalaxy/internal/infrastructure/wsapi"
	"github.com/agam1092005/multiGalaxy/internal/usecase"
)

func main() {
	cfg, err := cfgpkg.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.LogLevel)
	logger.Info().Str("addr", cfg.Addr).Msg("starting galaxyd")

	metrics := obs.NewMetrics()

	store := memory.NewStore(cfg.MaxSessions, cfg.MaxUpdatesPerSession, cfg.MaxChatPerSession,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	svc := usecase.NewSessionService(store, store, store)
	hub := wsapi.NewHub(cfg, logger, metrics, svc)
	deps := &wsapi.Deps{Cfg: cfg, Logger: logger, Metrics: metrics, Svc: svc, Hub: hub}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           wsapi.NewRouterWithDeps(deps),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("galaxyd stopped")
}
