package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/agromandi-lab/agromandi/internal/cache"
	corecfg "github.com/agromandi-lab/agromandi/internal/core/config"
	"github.com/agromandi-lab/agromandi/internal/core/market"
	"github.com/agromandi-lab/agromandi/internal/migrations"
	"github.com/agromandi-lab/agromandi/internal/prices"
	"github.com/agromandi-lab/agromandi/internal/server"
	"github.com/agromandi-lab/agromandi/internal/upstream"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "agromandi.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"cache_backend", cfg.Cache.Backend,
		"cache_ttl_hours", cfg.Cache.TTLHours,
		"page_size", cfg.Upstream.PageSize,
		"retry_policy", cfg.Upstream.RetryPolicy,
	)

	// 2. Initialize Cache Store
	store, health, cleanup, err := buildCacheStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize cache store", "backend", cfg.Cache.Backend, "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	// 3. Initialize Upstream Client
	client := upstream.NewClient(upstream.Options{
		BaseURL:        cfg.Upstream.BaseURL,
		ResourceID:     cfg.Upstream.ResourceID,
		APIKey:         cfg.Upstream.APIKey,
		PageSize:       cfg.Upstream.PageSize,
		PageDelay:      cfg.Upstream.PageDelayDuration(),
		RequestTimeout: cfg.Upstream.RequestTimeoutDuration(),
		RetryPolicy:    upstream.RetryPolicy(cfg.Upstream.RetryPolicy),
		RetryAttempts:  cfg.Upstream.RetryAttempts,
	})

	// 4. Optional static fallback dataset
	var fallback *upstream.FallbackSource
	if cfg.Fallback.Enabled {
		fallback, err = upstream.LoadFallback(cfg.Fallback.Path)
		if err != nil {
			slog.Error("Failed to load fallback dataset", "path", cfg.Fallback.Path, "error", err)
			os.Exit(1)
		}
		slog.Info("Fallback dataset loaded", "path", cfg.Fallback.Path)
	}

	// 5. Commodity registry (informational; missing file is fine)
	commodities, err := market.LoadCommodities(cfg.Commodities.Path)
	if err != nil {
		slog.Error("Failed to load commodity registry", "path", cfg.Commodities.Path, "error", err)
		os.Exit(1)
	}
	slog.Info("Commodity registry loaded", "count", len(commodities))

	// 6. Aggregation Service
	svc := prices.NewService(client, store, prices.ServiceOptions{
		Fallback:       fallback,
		OverallTimeout: cfg.Upstream.OverallTimeoutDuration(),
		Commodities:    commodities,
	})

	// 7. HTTP Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), health, cfg.Server.Mode)
	svc.RegisterRoutes(srv.Engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler → triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// buildCacheStore constructs the configured cache backend. The returned
// HealthChecker is nil for backends without a meaningful ping.
func buildCacheStore(cfg *corecfg.Config) (cache.Store, server.HealthChecker, func(), error) {
	ttl := cfg.Cache.TTL()

	switch cfg.Cache.Backend {
	case "filesystem":
		store, err := cache.NewFileSystemStore(cfg.Cache.Dir, ttl)
		return store, nil, nil, err

	case "memory":
		return cache.NewMemoryStore(ttl), nil, nil, nil

	case "postgres":
		db, err := cache.OpenDB(cfg.Cache.DSN, cfg.Cache.MaxOpenConns, cfg.Cache.MaxIdleConns)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrations.RunMigrations(db, cfg.Cache.AutoMigrate); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		store := cache.NewPostgresStore(db, ttl)
		return store, store, func() { db.Close() }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		store := cache.NewRedisStore(client, ttl)
		return store, store, func() { client.Close() }, nil
	}

	return nil, nil, nil, fmt.Errorf("unsupported cache backend %q", cfg.Cache.Backend)
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
