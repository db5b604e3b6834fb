package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mr1hm/crisis-globe/internal/api"
	"github.com/mr1hm/crisis-globe/internal/config"
	"github.com/mr1hm/crisis-globe/internal/globe"
	"github.com/mr1hm/crisis-globe/internal/ingestion"
	"github.com/mr1hm/crisis-globe/internal/metrics"
	"github.com/mr1hm/crisis-globe/internal/repository"
	"github.com/mr1hm/crisis-globe/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load crises on a schedule and serve the API and globe sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg *config.Config) error {
	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	scale, err := config.LoadSeverityScale(cfg.Globe.SeverityScalePath)
	if err != nil {
		return fmt.Errorf("loading severity scale: %w", err)
	}

	if cfg.DB.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()
	broadcaster := stream.NewBroadcaster()

	chain := ingestion.NewChainFromConfig(cfg.Sources, clock, m)
	mgr := ingestion.NewManager(cfg, chain, db, broadcaster, clock, m)
	mgr.Start(ctx)

	sessions := globe.NewRegistry(clock, cfg.Globe.SessionTTL, broadcaster)
	m.RegisterSessionCount(sessions.Len)
	go sessions.Run(ctx)

	opts := globe.DefaultOptions()
	opts.Radius = cfg.Globe.Radius
	opts.FrameInterval = cfg.Globe.FrameInterval
	opts.Scale = scale

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(db, sessions, broadcaster, api.Options{
		Globe:     opts,
		Clock:     clock,
		Metrics:   m,
		Refresher: mgr,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitRPS: cfg.Server.RateLimitRPS,
		Gatherer:     reg,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()
	sessions.CloseAll()
	broadcaster.Close() // ends open SSE streams

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
