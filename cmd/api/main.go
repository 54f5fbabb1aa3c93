package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carewave/hospital-concierge/internal/admin"
	"github.com/carewave/hospital-concierge/internal/api/router"
	"github.com/carewave/hospital-concierge/internal/audit"
	"github.com/carewave/hospital-concierge/internal/concierge"
	appconfig "github.com/carewave/hospital-concierge/internal/config"
	"github.com/carewave/hospital-concierge/internal/department"
	"github.com/carewave/hospital-concierge/internal/marketing"
	"github.com/carewave/hospital-concierge/internal/observability/metrics"
	"github.com/carewave/hospital-concierge/internal/ratelimit"
	"github.com/carewave/hospital-concierge/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hospital-concierge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := connectRedis(cfg, logger)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	llm, err := concierge.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.MedicalModelID)
	if err != nil {
		logger.Error("failed to init Gemini client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = llm.Close() }()

	registry := prometheus.DefaultRegisterer
	conciergeMetrics := metrics.NewConciergeMetrics(registry)
	trackerMetrics := metrics.NewTrackerMetrics(registry)

	departments := department.NewStore(redisClient)
	auditService := audit.NewService(pool, logger)
	auditService.OnDrop(conciergeMetrics.ObserveAuditDrop)

	conciergeService := concierge.NewService(concierge.ServiceConfig{
		Departments:       departments,
		LLM:               llm,
		Audits:            auditService,
		Metrics:           conciergeMetrics,
		Logger:            logger,
		TurnLimit:         cfg.ConsultationTurnLimit,
		QuestionSoftLimit: cfg.QuestionSoftLimit,
		Modes: map[string]concierge.ModeParams{
			concierge.ModeMedical:    {Model: cfg.MedicalModelID, Temperature: float32(cfg.MedicalTemperature)},
			concierge.ModeHealthcare: {Model: cfg.HealthcareModelID, Temperature: float32(cfg.HealthcareTemperature)},
		},
	})

	limiter := buildLimiter(cfg, redisClient, logger)

	marketingRepo := marketing.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	routerCfg := &router.Config{
		Logger:             logger,
		ConciergeHandler:   concierge.NewHandler(conciergeService, logger),
		MarketingHandler:   marketing.NewHandler(marketingRepo, limiter, trackerMetrics, logger),
		AdminHandler:       admin.NewHandler(adminRepo, cfg.AdminJWTSecret, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// connectPostgresPool opens a pgx pool, or returns nil when no URL is set.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("postgres ping failed, continuing anyway", "error", err)
	}
	return pool
}

// connectRedis builds a Redis client, or returns nil when no address is set.
// Redis backs department config overrides and the shared rate limiter; the
// server degrades to builtins and an in-memory limiter without it.
func connectRedis(cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, department overrides disabled")
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

// buildLimiter picks the tracker rate limiter backend.
func buildLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) ratelimit.Limiter {
	if cfg.TrackerUseRedisLimiter && redisClient != nil {
		return ratelimit.NewRedisLimiter(redisClient, cfg.TrackerRateLimit, cfg.TrackerRateWindow, logger)
	}
	return ratelimit.NewMemoryLimiter(cfg.TrackerRateLimit, cfg.TrackerRateWindow)
}
