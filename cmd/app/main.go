package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/api"
	"github.com/chris/wage-advance-ledger/pkg/bootstrap"
	"github.com/chris/wage-advance-ledger/pkg/config"
	"github.com/chris/wage-advance-ledger/pkg/handlers"
	"github.com/chris/wage-advance-ledger/pkg/handlers/respond"
	wshandler "github.com/chris/wage-advance-ledger/pkg/handlers/websockets"
	"github.com/chris/wage-advance-ledger/pkg/metrics"
	custommw "github.com/chris/wage-advance-ledger/pkg/middleware"
	"github.com/chris/wage-advance-ledger/pkg/reconcile"
	"github.com/chris/wage-advance-ledger/pkg/websockets"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websockets.NewHub()
	app, err := bootstrap.Build(ctx, cfg, logger, bootstrap.WithHub(hub))
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(custommw.NewStructuredLogger(logger))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !app.Gateway.IsConnected() {
			http.Error(w, "ledger disconnected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", metrics.Handler())
	router.Handle("/ws", wshandler.NewHandler(app.Store, hub))

	api.HandlerWithOptions(handlers.NewApiHandler(app.Services()), api.ChiServerOptions{
		BaseRouter:       router,
		ErrorHandlerFunc: respond.Error,
	})

	if cfg.ReconcileInterval > 0 {
		go runReconciliation(ctx, app.Poller, cfg.ReconcileInterval, logger)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.HTTPPort, "store", cfg.Store, "ledger", cfg.Ledger)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

// runReconciliation drives both passes on a ticker until ctx ends.
func runReconciliation(ctx context.Context, poller *reconcile.Poller, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if res, err := poller.RunStaleExpiry(ctx); err != nil {
				logger.Warn("stale expiry pass failed", "error", err)
			} else if res.Expired > 0 || res.RequestsExpired > 0 {
				logger.Info("stale expiry pass", "checked", res.Checked, "expired", res.Expired, "requestsExpired", res.RequestsExpired)
			}
			if res, err := poller.RunConfirmationReconciliation(ctx); err != nil {
				logger.Warn("confirmation pass failed", "error", err)
			} else if res.Checked > 0 {
				logger.Info("confirmation pass", "checked", res.Checked, "confirmed", res.Confirmed, "failed", res.Failed)
			}
		}
	}
}
