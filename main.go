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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"lifesim/internal/config"
	"lifesim/internal/handlers"
	"lifesim/internal/observe"
	"lifesim/internal/storage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet.
		slog.Error("failed to load config", "error", err)
		return err
	}

	// Structured JSON logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	if cfg.APIKey == "" {
		slog.Warn("OPENROUTER_API_KEY not set; model requests will fail until it is configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry := observe.ProviderConfig{ServiceName: "lifesim", ServiceVersion: version}
	if cfg.TraceEndpoint != "" {
		if telemetry.TraceExporter, err = observe.NewOTLPExporter(ctx, cfg.TraceEndpoint); err != nil {
			return err
		}
		slog.Info("exporting traces", "endpoint", cfg.TraceEndpoint)
	}
	metrics, shutdownTelemetry, err := observe.InitProvider(ctx, telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown", "error", err)
		}
	}()

	app := handlers.NewApp(cfg, storage.New(cfg.DataDir), metrics)

	mux := app.Routes()
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.LogRequest(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", "http://localhost:"+cfg.Port, "model", cfg.DefaultModel(), "data", cfg.DataDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.RunEviction(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
