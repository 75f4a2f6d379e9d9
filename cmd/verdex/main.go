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

	"github.com/kailas-cloud/verdex/internal/config"
	"github.com/kailas-cloud/verdex/internal/db"
	dbRedis "github.com/kailas-cloud/verdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/verdex/internal/logger"
	"github.com/kailas-cloud/verdex/internal/metrics"
	"github.com/kailas-cloud/verdex/internal/projection"
	"github.com/kailas-cloud/verdex/internal/repository/regcache"
	registryrepo "github.com/kailas-cloud/verdex/internal/repository/registry"
	"github.com/kailas-cloud/verdex/internal/schema"
	"github.com/kailas-cloud/verdex/internal/store"
	chiTransport "github.com/kailas-cloud/verdex/internal/transport/chi"
	documentuc "github.com/kailas-cloud/verdex/internal/usecase/document"
	schemauc "github.com/kailas-cloud/verdex/internal/usecase/schema"
	"github.com/kailas-cloud/verdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting verdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_url", cfg.Store.BaseURL),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	storeClient, err := store.New(store.Config{
		BaseURL:     cfg.Store.BaseURL,
		Username:    cfg.Store.Username,
		Password:    cfg.Store.Password,
		IndexPrefix: cfg.Store.IndexPrefix,
		Timeout:     time.Duration(cfg.Store.TimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create store client", zap.Error(err))
	}

	ctx := context.Background()
	if err := storeClient.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Document store not ready", zap.Error(err))
	}
	logger.Info("Connected to document store")

	// Register registry metrics explicitly (no init())
	metrics.RegisterRegistryMetrics()

	// Resolver chain — composition root
	regRepo := registryrepo.New(storeClient)

	var resolver projection.Resolver = regRepo
	var invalidator schemauc.Invalidator = noopInvalidator{}
	if cfg.Cache.Enabled {
		var kv db.Store
		kv, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer kv.Close()

		if err := kv.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}

		cached := regcache.New(
			regRepo, kv,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.RegistryCacheTotal, logger,
		)
		resolver = cached
		invalidator = cached
		logger.Info("Resolver cache enabled", zap.Strings("cache_addrs", cfg.Cache.Addrs))
	}

	engine := projection.New(resolver, logger)
	compiler := schema.NewCompiler(storeClient, logger)

	schemaSvc := schemauc.New(compiler, regRepo, storeClient, invalidator, logger)
	docSvc := documentuc.New(schemaSvc, engine, storeClient, logger)

	server := chiTransport.NewServer(schemaSvc, docSvc, storeClient, logger)

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

	logger.Info("Server stopped gracefully")
}

// noopInvalidator stands in when the resolver cache is disabled.
type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, string) error { return nil }

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

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWith(r.Context(), reqLogger)

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
