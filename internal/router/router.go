package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

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
	"github.com/royaltymeds/pharmacy-api/pkg/metrics"
)

// Handlers collects everything the router mounts.
type Handlers struct {
	Health       *healthhandler.Handler
	Auth         *authhandler.Handler
	Drug         *drughandler.Handler
	Prescription *prescriptionhandler.Handler
	Order        *orderhandler.Handler
	Shipping     *shippinghandler.Handler
	Settings     *settingshandler.Handler
	Refill       *refillhandler.Handler
	Audit        *audithandler.Handler
	Upload       *uploadhandler.Handler
}

// New builds the gin engine with the full middleware chain and all routes.
func New(cfg *config.Config, m *metrics.Metrics, authMw *middleware.AuthMiddleware, h Handlers) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics(m))
	r.Use(middleware.Timeout(middleware.DefaultTimeoutConfig()))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Security.AllowedOrigins,
		AllowMethods:     cfg.Security.AllowedMethods,
		AllowHeaders:     cfg.Security.AllowedHeaders,
		AllowCredentials: false,
	}))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		})
		r.Use(limiter.RateLimit())
	}

	h.Health.RegisterRoutes(r)
	if cfg.Monitoring.PrometheusEnabled {
		r.GET(cfg.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	// Public surface: auth, catalog reads, shipping quotes, payment info.
	public := r.Group("/api/v1")
	h.Auth.RegisterRoutes(public)

	// Authenticated surface.
	api := r.Group("/api/v1", authMw.Authenticate())

	h.Drug.RegisterRoutes(public, api, authMw)
	h.Shipping.RegisterRoutes(public, api, authMw)
	h.Settings.RegisterRoutes(public, api, authMw)
	h.Prescription.RegisterRoutes(api, authMw)
	h.Order.RegisterRoutes(api, authMw)
	h.Refill.RegisterRoutes(api, authMw)
	h.Audit.RegisterRoutes(api, authMw)
	h.Upload.RegisterRoutes(api)

	return r
}
