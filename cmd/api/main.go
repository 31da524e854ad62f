package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"

	"github.com/royaltymeds/pharmacy-api/config"
	audithandler "github.com/royaltymeds/pharmacy-api/internal/handler/audit"
	authhandler "github.com/royaltymeds/pharmacy-api/internal/handler/auth"
	drughandler "github.com/royaltymeds/pharmacy-api/internal/handler/drug"
	healthhandler "github.com/royaltymeds/pharmacy-api/internal/handler/health"
	orderhandler "github.com/royaltymeds/pharmacy-api/internal/handler/order"
	prescriptionhandler "github.com/royaltymeds/pharmacy-api/internal/handler/prescription"
	refillhandler "github.com/royaltymeds/pharmacy-api/internal/handler/refill"
	settingshandler "github.com/royaltymeds/pharmacy-api/internal/handler/settings"
	shippinghandler "github.com/royaltymeds/pharmacy-api/internal/handler/shipping"
	uploadhandler "github.com/royaltymeds/pharmacy-api/internal/handler/upload"
	"github.com/royaltymeds/pharmacy-api/internal/middleware"
	"github.com/royaltymeds/pharmacy-api/internal/repository/postgres"
	"github.com/royaltymeds/pharmacy-api/internal/router"
	auditsvc "github.com/royaltymeds/pharmacy-api/internal/service/audit"
	authsvc "github.com/royaltymeds/pharmacy-api/internal/service/auth"
	drugsvc "github.com/royaltymeds/pharmacy-api/internal/service/drug"
	ordersvc "github.com/royaltymeds/pharmacy-api/internal/service/order"
	prescriptionsvc "github.com/royaltymeds/pharmacy-api/internal/service/prescription"
	refillsvc "github.com/royaltymeds/pharmacy-api/internal/service/refill"
	settingssvc "github.com/royaltymeds/pharmacy-api/internal/service/settings"
	shippingsvc "github.com/royaltymeds/pharmacy-api/internal/service/shipping"
	"github.com/royaltymeds/pharmacy-api/internal/storage"
	"github.com/royaltymeds/pharmacy-api/pkg/auth"
	"github.com/royaltymeds/pharmacy-api/pkg/logger"
	"github.com/royaltymeds/pharmacy-api/pkg/messaging"
	brokerredis "github.com/royaltymeds/pharmacy-api/pkg/messaging/redis"
	"github.com/royaltymeds/pharmacy-api/pkg/metrics"
	"github.com/royaltymeds/pharmacy-api/pkg/validator"
)

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

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = brokerredis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer broker.Close()
	}

	store, err := storage.NewS3Storage(context.Background(), cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	m := metrics.NewMetrics("pharmacy_api")
	val := validator.New()
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:             cfg.JWT.Secret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		ExpiryHours:        cfg.JWT.ExpiryHours,
		RefreshExpiryHours: cfg.JWT.RefreshExpiryHours,
	})

	// Repositories.
	userRepo := postgres.NewUserRepository(db)
	drugRepo := postgres.NewDrugRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	rateRepo := postgres.NewShippingRateRepository(db)
	configRepo := postgres.NewPaymentConfigRepository(db)
	refillRepo := postgres.NewRefillRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Services.
	auditor := auditsvc.NewService(auditRepo, m)
	shippingService := shippingsvc.NewService(rateRepo, configRepo, auditor)
	authService := authsvc.NewService(userRepo, jwtSvc)
	drugService := drugsvc.NewService(drugRepo, auditor)
	prescriptionService := prescriptionsvc.NewService(prescriptionRepo, auditor, broker, m)
	orderService := ordersvc.NewService(orderRepo, drugRepo, shippingService, auditor, broker, m)
	refillService := refillsvc.NewService(refillRepo, prescriptionRepo, auditor, broker, m)
	settingsService := settingssvc.NewService(configRepo, auditor, shippingService)

	authMw := middleware.NewAuthMiddleware(jwtSvc)
	engine := router.New(cfg, m, authMw, router.Handlers{
		Health:       healthhandler.NewHandler(db),
		Auth:         authhandler.NewHandler(authService, val),
		Drug:         drughandler.NewHandler(drugService, val),
		Prescription: prescriptionhandler.NewHandler(prescriptionService, val),
		Order:        orderhandler.NewHandler(orderService, val),
		Shipping:     shippinghandler.NewHandler(shippingService, val),
		Settings:     settingshandler.NewHandler(settingsService, val),
		Refill:       refillhandler.NewHandler(refillService, val),
		Audit:        audithandler.NewHandler(auditor),
		Upload:       uploadhandler.NewHandler(store),
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        engine,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
