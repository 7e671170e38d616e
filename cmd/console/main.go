package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helicode/ambassador-console-go/internal/config"
	"github.com/helicode/ambassador-console-go/internal/gateway"
	"github.com/helicode/ambassador-console-go/internal/guard"
	"github.com/helicode/ambassador-console-go/internal/handler"
	"github.com/helicode/ambassador-console-go/internal/infra/notify"
	"github.com/helicode/ambassador-console-go/internal/infra/observability"
	"github.com/helicode/ambassador-console-go/internal/infra/resilience"
	"github.com/helicode/ambassador-console-go/internal/infra/state"
	"github.com/helicode/ambassador-console-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.String("state_dir", cfg.StateDir),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "ambassador-console")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	cb := resilience.NewCircuitBreaker("ambassador-api")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Persisted state ---
	snapshots, err := state.NewDir(cfg.StateDir, logger)
	if err != nil {
		logger.Fatal("failed to init state dir", zap.Error(err))
	}

	// --- Gateway ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	gw := gateway.NewClient(httpClient, cfg.APIBaseURL, cb, bulkhead, metrics, logger)

	// --- Stores ---
	notifier := notify.NewLog(logger)
	authStore := store.NewAuthStore(gw, snapshots, metrics, logger)
	adminStore := store.NewAmbassadorStore(gw, snapshots, notifier, metrics, logger)
	referralStore := store.NewReferralStore(gw, metrics, logger)

	nav := handler.NewShellNavigator(guard.RouteLanding, logger)

	// The gateway reads the bearer token from the auth store, and any
	// 401 tears the session down and sends the shell home.
	gw.SetTokenSource(authStore)
	gw.SetUnauthorizedHook(func() {
		authStore.Logout()
		nav.NavigateTo(guard.RouteLanding)
	})

	// --- Router ---
	router := handler.NewRouter(authStore, adminStore, referralStore, nav, metrics, logger)

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
		logger.Info("console starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("console shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("console stopped")
}
