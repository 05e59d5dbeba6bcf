package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/metrics"
	"stockpoller/internal/model"
	"stockpoller/internal/poller"
	"stockpoller/internal/queue"
	"stockpoller/internal/ratelimit"
	"stockpoller/internal/retry"
	"stockpoller/internal/secrets"
	"stockpoller/internal/source"
	"stockpoller/internal/validate"
	"stockpoller/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/poller.yaml", "path to config file")
	flag.Parse()

	// Bootstrap logger; replaced once the configured level is known.
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("starting poller",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration: file + environment, then the Vault overlay,
	// then defaults and validation.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg.ApplySecrets(secrets.Load(ctx, cfg.Vault, logger))
	if err := cfg.Finalize(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		"source", cfg.Poller.Source,
		"symbols", len(cfg.Poller.Symbols),
		"interval", cfg.Poller.Interval,
		"queue_type", cfg.Queue.Type,
		"dry_run", cfg.Poller.DryRun,
	)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Source adapter and its rate limiter
	sourceCfg := cfg.Sources.ForSource(cfg.Poller.Source)
	adapter, err := source.New(cfg.Poller.Source, sourceCfg)
	if err != nil {
		logger.Error("failed to create source adapter",
			"source", cfg.Poller.Source,
			"known", source.Names(),
			"error", err,
		)
		os.Exit(1)
	}

	limiter, err := ratelimit.New(sourceCfg.RateLimit, time.Minute, logger)
	if err != nil {
		logger.Error("failed to create rate limiter", "error", err)
		os.Exit(1)
	}

	// Queue sender
	sender, err := queue.New(ctx, cfg.Queue, logger)
	if err != nil {
		logger.Error("failed to create queue sender", "error", err)
		os.Exit(1)
	}
	m := metrics.New()

	p := poller.New(poller.Deps{
		Adapter:   adapter,
		Limiter:   limiter,
		Fetcher:   fetch.NewClient(fetch.WithTimeout(cfg.HTTP.Timeout), fetch.WithLogger(logger)),
		Validator: validate.New(logger),
		Sender:    sendRecorder{sender: sender, metrics: m, queue: cfg.Queue.Type},
		Metrics:   m,
		Snapshot:  snapshotter(*configPath, cfg, logger),
		Retry: retry.Policy{
			Kind:        retry.Kind(cfg.Retry.Backoff),
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       cfg.Retry.Delay,
			Factor:      cfg.Retry.Factor,
		},
		Logger: logger,
	})

	// Health and metrics server
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, m.Handler())
	mux.HandleFunc("/health", healthHandler(sender, p, cfg.Queue.Type))

	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := p.Stop(shutdownCtx); err != nil {
		logger.Warn("poller stop timed out", "error", err)
	}
	healthServer.Shutdown(shutdownCtx)

	if err := sender.Close(); err != nil {
		logger.Warn("failed to close queue sender", "error", err)
	}

	logger.Info("poller stopped")
}

// sendRecorder wraps the queue sender so publish outcomes feed the
// metrics registry.
type sendRecorder struct {
	sender  queue.Sender
	metrics *metrics.Metrics
	queue   string
}

func (r sendRecorder) Send(ctx context.Context, q model.Quote) error {
	err := r.sender.Send(ctx, q)
	r.metrics.RecordPublish(r.queue, err)
	return err
}

// snapshotter re-reads the config file at the top of each poll cycle so
// symbols, interval and dry-run can change without a restart. On a read
// error the last good snapshot is kept.
func snapshotter(path string, initial *config.Config, logger *slog.Logger) poller.SnapshotFunc {
	var mu sync.Mutex
	last := poller.Snapshot{
		Symbols:  initial.Poller.Symbols,
		Interval: initial.Poller.Interval,
		DryRun:   initial.Poller.DryRun,
	}

	return func() poller.Snapshot {
		mu.Lock()
		defer mu.Unlock()

		cfg, err := config.LoadAndValidate(path)
		if err != nil {
			logger.Warn("config re-read failed, keeping previous snapshot", "error", err)
			return last
		}

		last = poller.Snapshot{
			Symbols:  cfg.Poller.Symbols,
			Interval: cfg.Poller.Interval,
			DryRun:   cfg.Poller.DryRun,
		}
		return last
	}
}

// healthHandler reports queue liveness and the latest cycle counters.
func healthHandler(sender queue.Sender, p *poller.Poller, queueType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status string         `json:"status"`
			Queue  map[string]any `json:"queue"`
			Poller poller.Stats   `json:"poller"`
		}{
			Status: "healthy",
			Queue: map[string]any{
				"type": queueType,
			},
			Poller: p.Stats(),
		}

		if sender.HealthCheck(ctx) {
			health.Queue["status"] = "connected"
		} else {
			health.Queue["status"] = "disconnected"
			health.Status = "unhealthy"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	}
}
