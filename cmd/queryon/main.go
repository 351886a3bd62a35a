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
	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/cache"
	"github.com/loreworks/queryon/internal/config"
	"github.com/loreworks/queryon/internal/domain"
	logpkg "github.com/loreworks/queryon/internal/logger"
	"github.com/loreworks/queryon/internal/metrics"
	convlogrepo "github.com/loreworks/queryon/internal/repository/convlog"
	domaincfgrepo "github.com/loreworks/queryon/internal/repository/domaincfg"
	embeddingrepo "github.com/loreworks/queryon/internal/repository/embedding"
	libraryrepo "github.com/loreworks/queryon/internal/repository/library"
	patternrepo "github.com/loreworks/queryon/internal/repository/pattern"
	chiTransport "github.com/loreworks/queryon/internal/transport/chi"
	openaiTransport "github.com/loreworks/queryon/internal/transport/openai"
	"github.com/loreworks/queryon/internal/transport/websearch"
	embeddinguc "github.com/loreworks/queryon/internal/usecase/embedding"
	indexuc "github.com/loreworks/queryon/internal/usecase/index"
	"github.com/loreworks/queryon/internal/usecase/memory"
	personauc "github.com/loreworks/queryon/internal/usecase/persona"
	queryuc "github.com/loreworks/queryon/internal/usecase/query"
	"github.com/loreworks/queryon/internal/usecase/toolcall"
	"github.com/loreworks/queryon/internal/version"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

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

	logger.Info("Starting queryon API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_dir", cfg.Storage.Dir),
		zap.Bool("cache_enabled", cfg.Cache.Enabled()),
	)

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	// Optional embedding cache
	var kvCache *cache.Client
	if cfg.Cache.Enabled() {
		kvCache, err = cache.New(cache.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			TTL:      time.Duration(cfg.Cache.TTLHours) * time.Hour,
		})
		if err != nil {
			logger.Fatal("Failed to create cache client", zap.Error(err))
		}
		defer kvCache.Close()

		if err := kvCache.Ping(context.Background()); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Embedder chain: OpenAI -> Cached (optional) -> Service
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	var embedder domain.Embedder = base
	if kvCache != nil {
		embedder = cache.NewCachedEmbedder(
			base, kvCache, base.ModelVersion(), metrics.EmbeddingCacheTotal, logger,
		)
	}
	embSvc := embeddinguc.NewService(
		embedder, base.HealthCheck, base.ModelVersion(), cfg.Embedding.Dimensions, logger,
	)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// File-backed repositories
	dataDir := cfg.Storage.Dir
	patternStore := patternrepo.NewStore(dataDir)
	patternVectors := embeddingrepo.NewStore(dataDir, "embeddings.json")
	libraryVectors := embeddingrepo.NewStore(dataDir, "library.embeddings.json")
	convLog := convlogrepo.New(dataDir)
	domainCfgs := domaincfgrepo.New(dataDir)
	corpus := libraryrepo.New(dataDir)

	// Semantic indices
	enc := indexuc.Encoder{
		TokenBudget:  cfg.Index.TokenBudget,
		FieldCharCap: cfg.Index.FieldCharCap,
	}
	patternIdx := indexuc.NewPatternIndex(patternStore, patternVectors, embSvc, enc, logger)
	docIdx := indexuc.NewDocIndex(corpus, libraryVectors, embSvc, enc, logger)

	// Async pool for journal embedding off the response path
	pool, err := ants.NewPool(cfg.Journal.PoolSize)
	if err != nil {
		logger.Fatal("Failed to create journal pool", zap.Error(err))
	}
	defer pool.Release()

	memDeps := memory.Deps{
		Log:    convLog,
		Index:  patternIdx,
		Pool:   pool,
		Logger: logger,
	}

	// Persona resolver with process-wide completion defaults
	resolver := personauc.NewResolver(domain.LLMConfig{
		BaseURL:     cfg.Completion.BaseURL,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
	})

	// Tool-calling orchestrator over completions + web search
	completions := openaiTransport.NewCompletionClient(logger)
	web := websearch.New(websearch.Config{
		UserAgent: cfg.WebSearch.UserAgent,
		Logger:    logger,
	})
	orch := toolcall.New(completions, web, toolcall.Config{
		MaxResults:     cfg.WebSearch.MaxResults,
		FetchPages:     cfg.WebSearch.FetchPages,
		PageCharBudget: cfg.WebSearch.PageCharBudget,
	}, logger)

	processor := queryuc.New(
		domainCfgs, resolver, memDeps, patternIdx, docIdx, orch,
		time.Duration(cfg.Query.TimeoutSec)*time.Second, logger,
	)

	server := chiTransport.NewServer(
		processor, patternIdx, newEngineHealthChecker(embSvc), logger,
	)

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

// engineHealthChecker reports readiness of the embedding provider.
type engineHealthChecker struct {
	emb *embeddinguc.Service
}

func newEngineHealthChecker(emb *embeddinguc.Service) *engineHealthChecker {
	return &engineHealthChecker{emb: emb}
}

func (h *engineHealthChecker) Check(ctx context.Context) error {
	if err := h.emb.EnsureLoaded(ctx); err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}
	return nil
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
