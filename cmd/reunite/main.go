package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/config"
	"github.com/reunite-labs/reunite/internal/db"
	dbRedis "github.com/reunite-labs/reunite/internal/db/redis"
	"github.com/reunite-labs/reunite/internal/domain/match"
	logpkg "github.com/reunite-labs/reunite/internal/logger"
	"github.com/reunite-labs/reunite/internal/metrics"
	"github.com/reunite-labs/reunite/internal/repository/geocache"
	personrepo "github.com/reunite-labs/reunite/internal/repository/person"
	chiTransport "github.com/reunite-labs/reunite/internal/transport/chi"
	"github.com/reunite-labs/reunite/internal/transport/faceapi"
	"github.com/reunite-labs/reunite/internal/transport/nominatim"
	"github.com/reunite-labs/reunite/internal/usecase/georesolve"
	healthuc "github.com/reunite-labs/reunite/internal/usecase/health"
	rankuc "github.com/reunite-labs/reunite/internal/usecase/rank"
	reportuc "github.com/reunite-labs/reunite/internal/usecase/report"
	"github.com/reunite-labs/reunite/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting reunite API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create record store. Valkey and Redis speak the same protocol, so
	// both drivers share the rueidis-backed store.
	var store db.Store
	switch cfg.Database.Driver {
	case "valkey", "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register external-call metrics explicitly (no init())
	metrics.RegisterExternalMetrics()

	// External providers
	faceEmbedder := faceapi.New(&faceapi.Config{
		BaseURL: cfg.FaceAPI.BaseURL,
		Timeout: time.Duration(cfg.FaceAPI.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	nominatimGeocoder := nominatim.New(&nominatim.Config{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   time.Duration(cfg.Geocoder.TimeoutSec) * time.Second,
		Logger:    logger,
	})
	geocoder := geocache.New(
		nominatimGeocoder, store,
		time.Duration(cfg.Geocoder.CacheTTLHours)*time.Hour,
		metrics.GeocodeCacheTotal, logger,
	)
	logger.Info("Geocoder created",
		zap.String("base_url", cfg.Geocoder.BaseURL),
		zap.Int("cache_ttl_hours", cfg.Geocoder.CacheTTLHours),
	)

	// Repositories and use case services
	recordRepo := personrepo.New(store)

	reportSvc := reportuc.New(faceEmbedder, recordRepo, logger)
	resolveSvc := georesolve.New(geocoder, cfg.Matching.GeocodeConcurrency, logger)
	rankSvc := rankuc.New(recordRepo, resolveSvc, rankuc.NewScorer(logger), logger)
	handles := rankuc.NewHandleStore(time.Duration(cfg.Matching.ResultHandleTTLMin) * time.Minute)

	healthSvc := healthuc.New(store, faceEmbedder, nominatimGeocoder)

	server := chiTransport.NewServer(
		reportSvc, rankSvc, recordRepo, faceEmbedder, handles, healthSvc,
		chiTransport.SearchOptions{
			Match:    searchOptions(cfg.Matching.Match, false, match.SortCombined),
			Reverse:  searchOptions(cfg.Matching.Reverse, true, match.SortCombined),
			Identify: searchOptions(cfg.Matching.Identify, false, match.SortFaceScore),
			Nearest:  searchOptions(cfg.Matching.Nearest, false, match.SortDistance),
		},
		logger,
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// searchOptions maps one configured endpoint to ranking options. Only the
// reverse flow hard-filters on gender; identify picks the best raw face
// match and nearest orders by raw distance.
func searchOptions(sc config.SearchConfig, filterGender bool, sortBy match.SortKey) match.Options {
	return match.Options{
		TopK:            sc.TopK,
		ScaleKm:         sc.ScaleKm,
		SimilarityFloor: sc.SimilarityFloor,
		RadiusKm:        sc.RadiusKm,
		AgeWindowYears:  sc.AgeWindowYears,
		FilterGender:    filterGender,
		SortBy:          sortBy,
	}
}
