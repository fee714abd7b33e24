package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/config"
	"github.com/boddenberg/finance-ai-tracker-go/internal/handler"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/cache"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/google"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/llm"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/mongo"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/finance-ai-tracker-go/internal/parser"
	"github.com/boddenberg/finance-ai-tracker-go/internal/port"
	"github.com/boddenberg/finance-ai-tracker-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Config ---
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("app_env", cfg.AppEnv),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Bool("parser_strict_json", cfg.ParserStrictJSON),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("jwt_ttl", cfg.JWTTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "finance-ai-tracker")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	analyticsCache := cache.New[any](cfg.CacheTTL)
	defer analyticsCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// --- LLM extractor ---
	extractor, err := llm.NewExtractor(startCtx, llm.Settings{
		Provider:      cfg.LLMProvider,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
	}, httpClient, resilience.NewCircuitBreaker("llm-"+cfg.LLMProvider), logger)
	if err != nil {
		logger.Fatal("failed to create extractor", zap.Error(err))
	}
	txParser := parser.New(extractor, logger,
		parser.WithStrictJSON(cfg.ParserStrictJSON),
		parser.WithBulkhead(resilience.NewBulkhead(resilienceCfg.MaxConcurrency)),
	)

	// --- Stores ---
	stores, err := openStores(startCtx, cfg, httpClient, resilienceCfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer stores.close()

	// --- Model output audit (optional) ---
	var recorder port.ModelOutputRecorder
	checks := stores.checks
	if cfg.MongoURI != "" {
		mdb, err := mongo.Connect(startCtx, mongo.Config{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		}, logger)
		if err != nil {
			logger.Fatal("failed to connect to mongo", zap.Error(err))
		}
		defer mdb.Close(context.Background())
		recorder = mongo.NewModelOutputRecorder(mdb, logger)
		checks = append(checks, handler.HealthCheck{Name: "mongo", Ping: mdb.Ping})
		logger.Info("model output audit enabled", zap.String("database", cfg.MongoDatabase))
	} else {
		logger.Info("model output audit disabled, MONGO_URI not set")
	}

	// --- Services ---
	analyticsSvc := service.NewAnalyticsService(stores.transactions, analyticsCache, metrics, logger)
	txSvc := service.NewTransactionService(txParser, stores.transactions, recorder, analyticsSvc, metrics, logger)
	authSvc := service.NewAuthService(google.NewVerifier(cfg.GoogleClientID), stores.users, cfg.JWTSecret, cfg.JWTTTL, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Dependencies{
		Transactions:  txSvc,
		Analytics:     analyticsSvc,
		Auth:          authSvc,
		Checks:        checks,
		Metrics:       metrics,
		Logger:        logger,
		ClientURL:     cfg.ClientURL,
		SecureCookies: cfg.IsProduction(),
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}
