package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/config"
	dbRedis "github.com/mapfold/poidex/internal/db/redis"
	"github.com/mapfold/poidex/internal/domain/match"
	logpkg "github.com/mapfold/poidex/internal/logger"
	"github.com/mapfold/poidex/internal/metrics"
	blacklistrepo "github.com/mapfold/poidex/internal/repository/blacklist"
	recordrepo "github.com/mapfold/poidex/internal/repository/record"
	chiTransport "github.com/mapfold/poidex/internal/transport/chi"
	"github.com/mapfold/poidex/internal/transport/places"
	"github.com/mapfold/poidex/internal/transport/scout"
	cacheuc "github.com/mapfold/poidex/internal/usecase/cache"
	dedupuc "github.com/mapfold/poidex/internal/usecase/dedup"
	enrichuc "github.com/mapfold/poidex/internal/usecase/enrich"
	healthuc "github.com/mapfold/poidex/internal/usecase/health"
	searchuc "github.com/mapfold/poidex/internal/usecase/search"
	"github.com/mapfold/poidex/internal/version"
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

	logger.Info("Starting poidex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
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

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	registry := recordrepo.New(store)
	if err := registry.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure record index", zap.Error(err))
	}

	blacklist := blacklistrepo.New(store)
	if err := blacklist.Load(ctx); err != nil {
		logger.Fatal("Failed to load blacklist", zap.Error(err))
	}
	logger.Info("Blacklist loaded", zap.Int("size", blacklist.Len()))

	// Matching policies from config
	interactive := match.Interactive{
		MinSimilarity:     cfg.Matching.MinSimilarity,
		MaxDistanceMeters: cfg.Matching.InteractiveRadiusMeters,
	}
	batch := match.Batch{
		MaxDistanceMeters: cfg.Matching.BatchRadiusMeters,
		MinContainRatio:   cfg.Matching.BatchContainRatio,
		Exceptions:        match.NewExceptionSet(cfg.Matching.ExceptionGroups),
	}

	engine := dedupuc.New(
		interactive, batch, cfg.Scoring,
		registry, registry, blacklist,
		time.Duration(cfg.Reconcile.DeleteDelayMs)*time.Millisecond,
		logger,
	)

	snapshot := cacheuc.New(registry, blacklist, engine, logger)
	if err := snapshot.Load(ctx); err != nil {
		// A cold cache degrades to per-request regional fetches.
		logger.Warn("Snapshot load failed, starting cold", zap.Error(err))
	} else {
		logger.Info("Snapshot loaded", zap.Int("records", snapshot.Len()))
	}

	scoutClient := scout.NewClient(&scout.Config{
		APIKey:        cfg.Scout.APIKey,
		BaseURL:       cfg.Scout.BaseURL,
		Model:         cfg.Scout.Model,
		MaxCandidates: cfg.Scout.MaxCandidates,
		Logger:        logger,
	})

	placesClient := places.NewClient(&places.Config{
		BaseURL:   cfg.Places.BaseURL,
		UserAgent: cfg.Places.UserAgent,
		Timeout:   time.Duration(cfg.Places.TimeoutSec) * time.Second,
		Logger:    logger,
	})

	enricher := enrichuc.New(placesClient, registry, cfg.Search.EnrichBatchSize, logger)

	orchestrator := searchuc.New(
		snapshot, scoutClient, registry, engine, enricher, placesClient,
		searchuc.Options{
			MinResults:          cfg.Search.MinResults,
			AcceptRadiusMeters:  cfg.Search.AcceptRadiusMeters,
			DefaultRadiusMeters: cfg.Search.DefaultRadiusMeters,
		},
		logger,
	)

	reconciler := dedupuc.NewService(engine, registry, blacklist, logger)

	healthSvc := healthuc.New(store, scoutClient)

	server := chiTransport.NewServer(orchestrator, reconciler, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
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

	// Join detached persistence/enrichment goroutines before exiting.
	orchestrator.Wait()

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
