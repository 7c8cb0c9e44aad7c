package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cygnusreader/folio/internal/api"
	"github.com/cygnusreader/folio/internal/config"
	"github.com/cygnusreader/folio/internal/session"
	"github.com/cygnusreader/folio/internal/stats"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.New(session.Config{
		Workers:   cfg.WorkerCount,
		QueueSize: cfg.MaxQueueSize,
		DocTTL:    cfg.DocTTL,
		CacheTTL:  cfg.LayoutCacheTTL,
		Policy:    cfg.Policy,
	}, stats.NewPagination(time.Hour), log)
	sessions.Start(ctx)

	srv := api.NewServer(sessions, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		sessions.Stop()
	}()

	log.Info("starting folio",
		"port", cfg.Port,
		"theme", cfg.Theme,
		"workers", cfg.WorkerCount,
		"page", cfg.Geometry.Key(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
