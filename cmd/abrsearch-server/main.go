// Command abrsearch-server is the composition root for the serving
// shell (C6): it wires the Repository, optional search cache, search
// service, and ingestion orchestrator into per-worker HTTP servers
// under a forking primary, following the teacher's cmd/sercha-core
// main.go composition style.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/abrsearch/core/internal/adapters/driven/auth"
	rediscache "github.com/abrsearch/core/internal/adapters/driven/cache/redis"
	"github.com/abrsearch/core/internal/adapters/driven/postgres"
	httpserver "github.com/abrsearch/core/internal/adapters/driving/http"
	"github.com/abrsearch/core/internal/cluster"
	"github.com/abrsearch/core/internal/config"
	"github.com/abrsearch/core/internal/core/ports/driving"
	"github.com/abrsearch/core/internal/core/services"
	"github.com/abrsearch/core/internal/ingest"
)

func main() {
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cluster.IsWorker() || cfg.ClusterWorkers == 1 {
		runWorker(logger, cfg)
		return
	}

	primary := cluster.NewPrimary(cluster.PrimaryConfig{Workers: cfg.ClusterWorkers, Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := primary.Run(ctx); err != nil {
		logger.Error("primary exited with error", "error", err)
		os.Exit(1)
	}
}

// runWorker is each forked process's entry point: its own connection
// pool, its own HTTP server, its own SO_REUSEPORT listener. Pools are
// never shared across worker processes (spec §4.6.1).
func runWorker(logger *slog.Logger, cfg config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCfg := postgres.DefaultConfig(cfg.DatabaseURL)
	dbCfg.SSL = cfg.DatabaseSSL
	dbCfg.MaxOpenConns = cfg.DatabasePoolMax
	dbCfg.MaxIdleConns = cfg.DatabasePoolMin

	db, err := postgres.Connect(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	repo := postgres.NewRepository(db, cfg.SearchMaxCandidates)

	var cache *rediscache.Cache
	if cfg.RedisURL != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisURL})
		cache = rediscache.NewCache(client)
		if err := cache.Ping(ctx); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		logger.Info("search result cache enabled")
	}

	searchCfg := services.SearchServiceConfig{Repository: repo, Logger: logger}
	if cache != nil {
		// Assigning only in this branch avoids wrapping a nil
		// *rediscache.Cache in a non-nil driven.SearchCache interface
		// value, which services.searchService's `cache == nil` check
		// would otherwise miss.
		searchCfg.Cache = cache
	}
	searchSvc := services.NewSearchService(searchCfg)

	ingestSvc := ingest.New(ingest.Config{DatabaseURL: cfg.DatabaseURL, Logger: logger})

	var operator *auth.Operator
	if cfg.IngestOperatorTokenHash != "" {
		operator = auth.NewOperator([]byte(cfg.IngestJWTSigningKey), cfg.IngestOperatorTokenHash)
	}

	server := httpserver.NewServer(httpserver.Config{
		SearchService: searchSvc,
		IngestService: ingestSvc,
		Operator:      operator,
		Logger:        logger,
		IngestDefaults: driving.IngestOptions{
			BatchSize:     cfg.ETLBatchSize,
			RetryAttempts: cfg.ETLRetryAttempts,
			RetryDelayMs:  cfg.ETLRetryDelayMs,
			FlushDelayMs:  cfg.ETLFlushDelayMs,
		},
	})

	listener, err := cluster.Listen("tcp", ":"+strconv.Itoa(cfg.Port))
	if err != nil {
		logger.Error("failed to bind listener", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("worker serving", "port", cfg.Port, "pid", os.Getpid())
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server exited with error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down worker", "pid", os.Getpid())
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
