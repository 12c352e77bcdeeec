package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisCache "github.com/Dumpyard00/campus-swap-link/internal/adapter/cache/redis"
	"github.com/Dumpyard00/campus-swap-link/internal/adapter/fixture"
	"github.com/Dumpyard00/campus-swap-link/internal/adapter/httpapi"
	natsAdapter "github.com/Dumpyard00/campus-swap-link/internal/adapter/messaging/nats"
	mongoRepo "github.com/Dumpyard00/campus-swap-link/internal/adapter/repository/mongodb"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/store"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/usecase"
	"github.com/Dumpyard00/campus-swap-link/internal/config"
	"github.com/Dumpyard00/campus-swap-link/internal/dashboard"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/logger"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/metrics"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/tracer"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	configPath := os.Getenv("CATALOG_CONFIG")
	if configPath == "" {
		configPath = "."
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.NewLogger(&logger.LoggerConfig{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputFile: cfg.Logger.OutputFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Application starting...",
		zap.String("service_name", cfg.ServiceName),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.String("http_port", cfg.HTTP.Port),
		zap.Bool("redis_enabled", cfg.Redis.Address != ""),
		zap.Bool("nats_enabled", cfg.NATS.URL != ""))

	tp := tracer.InitTracer(cfg.ServiceName, cfg.Tracing.OTLPEndpoint, appLogger)
	defer func() {
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := tp.Shutdown(ctxShutdown); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	var mm *metrics.MetricsManager
	if cfg.Metrics.Enabled {
		mm = metrics.NewMetricsManager("catalog")
	}

	var source domain.SnapshotSource
	switch cfg.Catalog.Source {
	case config.SourceMongo:
		mongoClient, err := mongoRepo.NewMongoDBConnection(&cfg.Mongo)
		if err != nil {
			appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
			}
		}()
		appLogger.Info("Successfully connected and pinged MongoDB.")
		source = mongoRepo.NewListingSource(mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.Collection, appLogger)
	default:
		source = fixture.NewSource(cfg.Catalog.FixturePath, appLogger)
	}

	opts := usecase.Options{
		Directory:    loadDirectory(cfg.Catalog.FixturePath, appLogger),
		Metrics:      mm,
		RecentItems:  cfg.Catalog.RecentItems,
		FetchTimeout: cfg.Catalog.FetchTimeout,
	}

	if cfg.Redis.Address != "" {
		rdb, err := redisCache.NewRedisClient(&cfg.Redis, appLogger)
		if err != nil {
			appLogger.Warn("Facet cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			opts.Cache = redisCache.NewFacetCache(rdb, cfg.Redis.FacetTTL, appLogger)
		}
	}

	if cfg.NATS.URL != "" {
		publisher, err := natsAdapter.NewPublisher(cfg.NATS.URL, cfg.NATS.ConnectTimeout, appLogger, cfg.ServiceName)
		if err != nil {
			appLogger.Warn("Snapshot events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			opts.Publisher = publisher
		}
	}

	catalogUsecase := usecase.NewCatalogUsecase(store.New(), source, appLogger, opts)
	if _, err := catalogUsecase.Reload(context.Background()); err != nil {
		appLogger.Fatal("Initial snapshot load failed", zap.Error(err))
	}

	handler := httpapi.NewCatalogHandler(catalogUsecase, appLogger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      httpapi.NewRouter(handler, appLogger, mm, cfg.Metrics.Path),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Reloads happen only here, so they never overlap.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-reload:
			appLogger.Info("Received SIGHUP, reloading snapshot")
			if _, err := catalogUsecase.Reload(context.Background()); err != nil {
				appLogger.Error("Snapshot reload failed, still serving previous snapshot", zap.Error(err))
			}
			catalogUsecase.SetDirectory(loadDirectory(cfg.Catalog.FixturePath, appLogger))
		case sig := <-quit:
			appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			if err := srv.Shutdown(ctx); err != nil {
				appLogger.Error("HTTP server shutdown failed", zap.Error(err))
			}
			cancel()
			appLogger.Info("Application shutting down...")
			return
		}
	}
}

// loadDirectory reads profiles and purchases from the fixture file. Without one the
// dashboard and purchases endpoints answer 404 for every user.
func loadDirectory(path string, log *logger.Logger) *dashboard.Directory {
	if path == "" {
		return nil
	}
	f, err := fixture.ReadFile(path)
	if err != nil {
		log.Warn("Dashboard directory unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	dir, err := dashboard.NewDirectory(f.Profiles, f.Purchases)
	if err != nil {
		log.Warn("Dashboard directory rejected", zap.String("path", path), zap.Error(err))
		return nil
	}
	return dir
}
