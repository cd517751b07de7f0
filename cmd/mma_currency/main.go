package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/SscSPs/mma_currency/internal/adapters/feed/ecb"
	portsrepo "github.com/SscSPs/mma_currency/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_currency/internal/core/ports/services"
	"github.com/SscSPs/mma_currency/internal/core/services"
	"github.com/SscSPs/mma_currency/internal/handlers"
	"github.com/SscSPs/mma_currency/internal/middleware"
	"github.com/SscSPs/mma_currency/internal/platform/cache"
	"github.com/SscSPs/mma_currency/internal/platform/config"
	"github.com/SscSPs/mma_currency/internal/platform/metrics"
	"github.com/SscSPs/mma_currency/internal/repositories/database/memory"
	"github.com/SscSPs/mma_currency/internal/repositories/database/pgsql"
	"github.com/SscSPs/mma_currency/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const shutdownTimeout = 15 * time.Second

// @title MMA Currency API
// @version 1.0
// @description Exchange rates, conversions and the rate sync of the money management app.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := setupRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize rate store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepos()

	rateCache, err := setupRateCache(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize rate cache", slog.String("error", err.Error()))
		os.Exit(1)
	}

	collector := metrics.NewCollector(metrics.DefaultNamespace)
	feed := ecb.NewClient(ecb.Config{
		RecentURL:     cfg.Feed.RecentURL,
		HistoricalURL: cfg.Feed.HistoricalURL,
		Timeout:       cfg.Feed.HTTPTimeout,
	}, logger)

	container, err := services.NewServiceContainer(cfg, repos, feed, rateCache, collector, logger)
	if err != nil {
		logger.Error("Failed to initialize services", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, container, collector.Handler()); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var wg sync.WaitGroup
	if cfg.Sync.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			container.RateSync.Run(ctx)
		}()
	} else {
		logger.Warn("Rate sync disabled, rates will only change through the sync endpoint")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}

	// The scheduler stops with ctx; a manual cycle is cancelled by Stop.
	wg.Wait()
	container.RateSync.Stop()
	container.RateSync.Wait()
	logger.Info("Shutdown complete")
}

// setupRepositories opens the configured rate store and returns a function releasing it.
func setupRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.RateStoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory rate store, rates are lost on restart")
		return memory.NewRepositoryProvider(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}

	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

// setupRateCache builds the configured rate cache.
func setupRateCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portssvc.RateCache, error) {
	if cfg.Cache.Driver == config.CacheDriverRedis {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Using Redis rate cache", slog.String("addr", cfg.Cache.RedisAddr))
		return cache.NewRedisRateCache(client, cfg.Cache.TTL, logger), nil
	}

	local, err := cache.NewTTL[decimal.Decimal](cfg.Cache.Size, cfg.Cache.TTL)
	if err != nil {
		return nil, err
	}
	return local, nil
}
