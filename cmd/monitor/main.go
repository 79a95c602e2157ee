package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brandpulse/brandpulse/internal/alerting"
	"github.com/brandpulse/brandpulse/internal/brands"
	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/domain"
	"github.com/brandpulse/brandpulse/internal/logging"
	"github.com/brandpulse/brandpulse/internal/notify"
	"github.com/brandpulse/brandpulse/internal/pipeline"
	"github.com/brandpulse/brandpulse/internal/scoring"
	"github.com/brandpulse/brandpulse/internal/sentiment"
	"github.com/brandpulse/brandpulse/internal/server"
	"github.com/brandpulse/brandpulse/internal/store"
)

const (
	pipelineStopTimeout = 30 * time.Second
	serverStopTimeout   = 10 * time.Second
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupReference(cfg *config.Config) *config.Reference {
	ref, err := config.LoadReference(cfg.MonitorConfigFile)
	if err != nil {
		slog.Error("Failed to load reference data", "file", cfg.MonitorConfigFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Reference data loaded",
		"file", cfg.MonitorConfigFile,
		"brands", len(ref.Brands),
		"thresholds", len(ref.Thresholds),
		"channels", len(ref.Channels))
	return ref
}

func setupStore(cfg *config.Config, clock clockwork.Clock) (domain.KeyValue, *store.RedisStore) {
	if cfg.RedisURL == "" {
		slog.Info("No REDIS_URL configured, using in-memory store")
		return store.NewMemoryStore(clock), nil
	}

	redisStore, err := store.NewRedisStore(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to create Redis store", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisStore.Ping(ctx); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return redisStore, redisStore
}

func setupAlerting(ref *config.Reference, clock clockwork.Clock) *alerting.Engine {
	engine := alerting.NewEngine(clock)

	engine.RegisterTransport(domain.ChannelWebhook, notify.NewWebhookTransport())
	engine.RegisterTransport(domain.ChannelChatWebhook, notify.NewChatWebhookTransport())
	engine.RegisterTransport(domain.ChannelLog, notify.NewLogTransport())
	engine.RegisterTransport(domain.ChannelEmail, notify.NewLogTransport())
	engine.RegisterTransport(domain.ChannelSMS, notify.NewLogTransport())

	for _, threshold := range ref.Thresholds {
		engine.AddThreshold(threshold)
	}
	for _, channel := range ref.Channels {
		engine.AddChannel(channel)
	}
	return engine
}

func runGracefulShutdown(pipe *pipeline.Pipeline, srv *server.Server, redisStore *store.RedisStore) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, draining pipeline...")

		stopCtx, cancel := context.WithTimeout(context.Background(), pipelineStopTimeout)
		if err := pipe.Stop(stopCtx); err != nil {
			slog.Error("Pipeline drain timed out", "error", err)
		}
		cancel()

		srvCtx, cancel := context.WithTimeout(context.Background(), serverStopTimeout)
		if err := srv.Shutdown(srvCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		cancel()

		if redisStore != nil {
			if err := redisStore.Close(); err != nil {
				slog.Error("Failed to close Redis store", "error", err)
			}
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Monitor starting", "env", cfg.AppEnv, "port", cfg.Port)

	ref := setupReference(cfg)

	kv, redisStore := setupStore(cfg, clock)
	persister := store.NewPersister(kv, cfg.ResultTTL)

	sentimentEngine := sentiment.NewEngine(cfg.ModelTimeout, nil)
	brandProcessor := brands.NewProcessor(ref.Brands, nil)
	scoringEngine := scoring.NewEngine(clock, ref.PlatformMultipliers)
	alertEngine := setupAlerting(ref, clock)

	pipe := pipeline.New(pipeline.Config{
		BufferSize:    cfg.BufferSize,
		BatchSize:     cfg.BatchSize,
		Workers:       cfg.Workers,
		BatchFlush:    cfg.BatchFlush,
		StatsInterval: cfg.StatsInterval,
	}, sentimentEngine, brandProcessor, scoringEngine, alertEngine, persister, clock)

	if err := pipe.Initialize(); err != nil {
		slog.Error("Failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	// Posts arrive as JSON lines on stdin; a production collector replaces
	// this by implementing domain.PostSource.
	source := pipeline.NewJSONSource(os.Stdin)
	go func() {
		if err := pipe.ProcessStream(context.Background(), source); err != nil {
			slog.Error("Pipeline failed", "error", err)
		}
	}()

	// Pass nil explicitly to avoid a typed-nil interface when running in-memory
	var srv *server.Server
	if redisStore != nil {
		srv = server.NewServer(cfg, pipe, alertEngine, redisStore)
	} else {
		srv = server.NewServer(cfg, pipe, alertEngine, nil)
	}
	done := runGracefulShutdown(pipe, srv, redisStore)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
