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

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/sitequote/cmd/mainconfig"
	"github.com/wolfman30/sitequote/internal/api/router"
	"github.com/wolfman30/sitequote/internal/app/bootstrap"
	appconfig "github.com/wolfman30/sitequote/internal/config"
	"github.com/wolfman30/sitequote/internal/contact"
	"github.com/wolfman30/sitequote/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/sitequote/internal/http/middleware"
	"github.com/wolfman30/sitequote/internal/leads"
	"github.com/wolfman30/sitequote/internal/notify"
	"github.com/wolfman30/sitequote/internal/observability/metrics"
	"github.com/wolfman30/sitequote/internal/pricing"
	"github.com/wolfman30/sitequote/internal/session"
	"github.com/wolfman30/sitequote/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting sitequote API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog, err := bootstrap.BuildCatalog(cfg)
	if err != nil {
		logger.Error("failed to load catalog", "error", err, "path", cfg.CatalogPath)
		os.Exit(1)
	}
	estimator := pricing.NewEstimator(catalog)

	metricsHandler, quoteMetrics := setupMetrics()

	sender, err := setupEmailSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure email sender", "error", err)
		os.Exit(1)
	}
	leadNotifier, contactNotifier, err := bootstrap.BuildNotifiers(cfg, sender, quoteMetrics, logger)
	if err != nil {
		logger.Error("failed to configure notifiers", "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	sessions := session.NewManager(estimator, leadNotifier, bootstrap.BuildSnapshotStore(redisClient), logger).
		WithTTL(cfg.SessionTTL).
		WithNotifyTimeout(cfg.NotifyTimeout).
		WithMaxSessions(cfg.MaxSessions).
		WithObserver(quoteMetrics)
	go sessions.Run(ctx, cfg.SessionSweepInterval)

	pool := bootstrap.BuildPostgresPool(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}
	leadsRepo := bootstrap.BuildLeadsRepository(pool)

	submitLimiter := httpmiddleware.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateBurst)
	go submitLimiter.Run(ctx)
	sessionLimiter := httpmiddleware.NewRateLimiter(cfg.SessionRateLimit, cfg.SessionRateBurst)
	go sessionLimiter.Run(ctx)

	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET empty; /admin/leads is disabled")
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		PricingHandler:     pricing.NewHandler(estimator, quoteMetrics, logger),
		QuoteHandler:       handlers.NewQuoteHandler(sessions, leadsRepo, quoteMetrics, logger),
		ContactHandler:     contact.NewHandler(contactNotifier, quoteMetrics, logger),
		LeadsHandler:       leads.NewHandler(leadsRepo, logger),
		HealthHandler:      handlers.NewHealthHandler(healthChecks(redisClient, pool)),
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SubmitLimiter:      submitLimiter,
		SessionLimiter:     sessionLimiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

// setupMetrics registers the quote metrics on a dedicated registry and
// returns the /metrics handler for it.
func setupMetrics() (http.Handler, *metrics.QuoteMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	quoteMetrics := metrics.NewQuoteMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), quoteMetrics
}

// setupEmailSender only loads AWS config when SES is the selected provider.
func setupEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	var sesClient *sesv2.Client
	if cfg.EmailProvider == "ses" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		sesClient = mainconfig.NewSESClient(awsCfg, cfg)
	}
	return bootstrap.BuildEmailSender(cfg, sesClient, logger)
}

func healthChecks(redisClient *redis.Client, pool *pgxpool.Pool) map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	return checks
}
