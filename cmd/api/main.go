// The api binary runs the auction backend: the bidding service wired to
// either in-memory or Postgres-backed stores, with Redis-backed sequence
// numbers and event streams when configured.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gavelworks/auction-backend/internal/infrastructure/config"
	"github.com/gavelworks/auction-backend/internal/infrastructure/database"
	"github.com/gavelworks/auction-backend/internal/infrastructure/events"
	"github.com/gavelworks/auction-backend/internal/infrastructure/repository"
	"github.com/gavelworks/auction-backend/internal/infrastructure/sequence"
	"github.com/gavelworks/auction-backend/internal/infrastructure/telemetry"
	"github.com/gavelworks/auction-backend/internal/service/bidding"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	zapLogger, err := newZapLogger(cfg.Environment)
	if err != nil {
		return fmt.Errorf("creating infrastructure logger: %w", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = newRedisClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisClient.Close()
	}

	stores, cleanup, err := buildStores(ctx, cfg, zapLogger)
	if err != nil {
		return err
	}
	defer cleanup()

	var seqSource bidding.SequenceSource
	if redisClient != nil {
		seqSource, err = sequence.NewRedis(redisClient, zapLogger)
		if err != nil {
			return fmt.Errorf("creating sequence source: %w", err)
		}
		logger.Info("using redis sequence source")
	} else {
		seqSource = sequence.NewLocal()
		logger.Info("using local sequence source")
	}

	var sink events.Sink
	if redisClient != nil {
		sink, err = events.NewRedisStreamSink(redisClient, zapLogger,
			cfg.Events.StreamPrefix, cfg.Events.StreamMaxLen)
		if err != nil {
			return fmt.Errorf("creating event sink: %w", err)
		}
	} else {
		sink = events.NewLogSink(logger)
	}
	dispatcher := events.NewDispatcher(sink, logger, cfg.Events.BufferSize)
	defer dispatcher.Close()

	svc := bidding.NewService(stores, seqSource, dispatcher, logger, bidding.Config{
		MaxAttempts: cfg.Bidding.MaxAttempts,
		BaseDelay:   cfg.Bidding.BaseDelay,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /v1/auctions", func(w http.ResponseWriter, r *http.Request) {
		auctions, err := svc.ListAuctions(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(auctions); err != nil {
			logger.ErrorContext(r.Context(), "response_encode_failed",
				slog.String("error", err.Error()))
		}
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_started",
			slog.Int("port", cfg.Server.Port),
			slog.String("environment", cfg.Environment),
			slog.String("version", cfg.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("shutdown_complete")
	return nil
}

// buildStores returns Postgres-backed stores when a database URL is
// configured, in-memory stores otherwise.
func buildStores(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (*repository.Stores, func(), error) {
	if cfg.Database.URL == "" {
		return repository.NewMemoryStores(), func() {}, nil
	}

	pool, err := database.NewPool(ctx, &cfg.Database, zapLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return database.NewPostgresStores(pool, zapLogger), pool.Close, nil
}

func newRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func newZapLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
