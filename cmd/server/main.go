// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"recordmap-service/internal/api"
	"recordmap-service/internal/api/cache"
	"recordmap-service/internal/common/config"
	"recordmap-service/internal/common/database"
	"recordmap-service/internal/common/logger"
	"recordmap-service/internal/common/observability"
	"recordmap-service/internal/records"
	"recordmap-service/internal/soql"
	"recordmap-service/internal/store/elastic"
	"recordmap-service/internal/store/postgres"
	"recordmap-service/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	zapLog.Info("Starting recordmap service...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Recreate the logger with the configured level and format
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load Entity Registry ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("entity registry load failed", zap.Error(err))
	}
	zapLog.Info("Entity registry loaded",
		zap.String("path", cfg.Registry.Path),
		zap.Int("entities", len(reg.Entities)),
	)

	queryTimeout := config.GetDuration(cfg.Query.Timeout)

	// --- Init Record Store with retry ---
	var (
		store     records.RecordStore
		storePing api.Ping
	)

	switch cfg.Store.Backend {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			// Test the connection with context
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		store = postgres.New(pg, reg, queryTimeout, log)
		storePing = pg.Ping

	case "elasticsearch":
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			// Test the connection
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		store = elastic.New(esClient, reg, queryTimeout, log)
		storePing = func(ctx context.Context) error { return esClient.Ping() }

	default:
		zapLog.Fatal("unknown store backend", zap.String("backend", cfg.Store.Backend))
	}

	// --- Init Redis with retry (response cache, optional) ---
	var (
		respCache *cache.Cache
		cachePing api.Ping
	)
	if cfg.Cache.Enabled {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			// Test the connection with context
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, response cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")

			respCache = cache.New(redisClient.GetClient(), config.GetDuration(cfg.Cache.TTL), log)
			cachePing = redisClient.Ping
		}
	}

	// --- Wire Query Pipeline ---
	fetcher := records.NewFetcher(soql.NewBuilder(reg), store, log)
	handlers := api.NewHandlers(cfg, fetcher, respCache, storePing, cachePing, log)
	server := api.NewServer(cfg, handlers, obs, log)

	// --- Metrics Server ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("Metrics server listening", zap.String("address", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// --- API Server ---
	go func() {
		if err := server.Listen(); err != nil {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Recordmap service stopped gracefully")
}
