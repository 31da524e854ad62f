package settings

import (
	"github.com/gin-gonic/gin"

	"github.com/royaltymeds/pharmacy-api/internal/handler"
	"github.com/royaltymeds/pharmacy-api/internal/middleware"
	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/service/settings"
	"github.com/royaltymeds/pharmacy-api/pkg/httputil"
	"github.com/royaltymeds/pharmacy-api/pkg/validator"
)

type Handler struct {
	service   *settings.Service
	validator *validator.Validator
}

func NewHandler(service *settings.Service, val *validator.Validator) *Handler {
	return &Handler{service: service, validator: val}
}

// RegisterRoutes mounts the public payment info read and the admin update.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	public.GET("/settings/payment", h.Get)
	admin.PUT("/settings/payment", authMw.RequireRole(model.RoleAdmin), h.Update)
}

func (h *Handler) Get(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}

func (h *Handler) Update(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdatePaymentConfigRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	cfg, err := h.service.Update(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}
