package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"

	"github.com/royaltymeds/pharmacy-api/config"
	"github.com/royaltymeds/pharmacy-api/internal/email"
	"github.com/royaltymeds/pharmacy-api/internal/repository/postgres"
	"github.com/royaltymeds/pharmacy-api/internal/worker"
	"github.com/royaltymeds/pharmacy-api/pkg/logger"
	brokerredis "github.com/royaltymeds/pharmacy-api/pkg/messaging/redis"
	"github.com/royaltymeds/pharmacy-api/pkg/metrics"
)

func setupHealthCheck() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			log.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	appLogger := logger.NewLogger(&logger.Config{
		Level:  logger.InfoLevel,
		Output: os.Stdout,
	})
	log.Logger = *appLogger.Zerolog()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := brokerredis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("pharmacy_worker")
	emailSvc := email.NewSMTPService(cfg.SMTP, m)
	userRepo := postgres.NewUserRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	setupHealthCheck()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down")
		cancel()
	}()

	cleanup := worker.NewAuditCleanupWorker(auditRepo, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval)
	go cleanup.Start(ctx)

	notifier := worker.NewNotifier(broker, emailSvc, userRepo)
	if err := notifier.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("notifier failed")
	}
}
