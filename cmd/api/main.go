package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hezi777/barber-pro/cmd/mainconfig"
	"github.com/Hezi777/barber-pro/internal/api/router"
	"github.com/Hezi777/barber-pro/internal/app/bootstrap"
	"github.com/Hezi777/barber-pro/internal/appointments"
	"github.com/Hezi777/barber-pro/internal/assistant"
	appconfig "github.com/Hezi777/barber-pro/internal/config"
	"github.com/Hezi777/barber-pro/internal/conversation"
	"github.com/Hezi777/barber-pro/internal/conversations"
	"github.com/Hezi777/barber-pro/internal/demo"
	"github.com/Hezi777/barber-pro/internal/events"
	"github.com/Hezi777/barber-pro/internal/messaging"
	"github.com/Hezi777/barber-pro/internal/observability/metrics"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, logging.WithFormat(cfg.LogFormat))
	logger.Info("starting barber-pro API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"shop", cfg.ShopName,
		"timezone", cfg.Location().String(),
	)

	ctx := context.Background()
	pool, sqlDB, err := bootstrap.BuildPostgres(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		defer func() { _ = sqlDB.Close() }()
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	awsClients, err := mainconfig.BuildAWSClients(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	stores, err := bootstrap.BuildStores(cfg, bootstrap.Backends{
		Pool:   pool,
		SQL:    sqlDB,
		Redis:  redisClient,
		Dynamo: awsClients.Dynamo,
	}, logger)
	if err != nil {
		logger.Error("failed to build stores", "error", err)
		os.Exit(1)
	}

	metricsHandler, conversationMetrics := setupMetrics()
	done := make(chan struct{})

	r := router.New(routerConfig(cfg, stores, bootstrap.BuildPublisher(cfg, awsClients.SQS, logger), conversationMetrics, metricsHandler, logger, done))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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
	close(done)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the application collectors next to the Go runtime ones.
func setupMetrics() (http.Handler, *metrics.ConversationMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewConversationMetrics(reg)
}

func newAssistant(cfg *appconfig.Config, stores *bootstrap.Stores, publisher events.Publisher, m *metrics.ConversationMetrics, logger *logging.Logger) *assistant.Service {
	return assistant.NewService(stores.Conversations, stores.Appointments, stores.Customers,
		assistant.WithEngine(conversation.NewEngine(conversation.WithShopName(cfg.ShopName))),
		assistant.WithMessageLog(stores.Messages),
		assistant.WithPublisher(publisher),
		assistant.WithProcessedStore(stores.Processed),
		assistant.WithLocker(stores.Locker),
		assistant.WithMetrics(m),
		assistant.WithLogger(logger),
		assistant.WithLocation(cfg.Location()),
		assistant.WithIdleTimeout(cfg.ConversationIdleTimeout),
	)
}

func routerConfig(cfg *appconfig.Config, stores *bootstrap.Stores, publisher events.Publisher, m *metrics.ConversationMetrics, metricsHandler http.Handler, logger *logging.Logger, done <-chan struct{}) *router.Config {
	svc := newAssistant(cfg, stores, publisher, m, logger)
	seeder := demo.NewSeeder(stores.Customers, stores.Conversations, stores.Appointments, stores.Messages, cfg.Location())

	return &router.Config{
		Logger:              logger,
		MessagingHandler:    messaging.NewHandler(svc, stores.Messages, cfg.TwilioAuthToken, logger),
		ConversationHandler: conversations.NewHandler(stores.Conversations, logger),
		AppointmentHandler:  appointments.NewHandler(stores.Appointments, logger),
		SeedHandler:         demo.NewHandler(seeder, cfg.IsProduction(), logger),
		MetricsHandler:      metricsHandler,
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		WebhookRateLimit:    cfg.WebhookRateLimit,
		WebhookRateBurst:    cfg.WebhookRateBurst,
		Done:                done,
	}
}
