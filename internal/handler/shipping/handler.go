package shipping

import (
	"github.com/gin-gonic/gin"

	"github.com/royaltymeds/pharmacy-api/internal/handler"
	"github.com/royaltymeds/pharmacy-api/internal/middleware"
	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/service/shipping"
	apperrors "github.com/royaltymeds/pharmacy-api/pkg/errors"
	"github.com/royaltymeds/pharmacy-api/pkg/httputil"
	"github.com/royaltymeds/pharmacy-api/pkg/validator"
)

type Handler struct {
	service   *shipping.Service
	validator *validator.Validator
}

func NewHandler(service *shipping.Service, val *validator.Validator) *Handler {
	return &Handler{service: service, validator: val}
}

// RegisterRoutes mounts the public rate quote endpoint and admin rate CRUD.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	public.GET("/shipping/quote", h.Quote)

	rates := admin.Group("/shipping/rates", authMw.RequireRole(model.RoleAdmin))
	{
		rates.GET("", h.ListRates)
		rates.POST("", h.CreateRate)
		rates.PUT("/:id", h.UpdateRate)
		rates.DELETE("/:id", h.DeleteRate)
	}
}

// Quote resolves the delivery rate for a parish and optional city.
func (h *Handler) Quote(c *gin.Context) {
	parish := c.Query("parish")
	if parish == "" {
		httputil.RespondWithError(c, apperrors.BadRequest("parish is required", nil))
		return
	}

	rate, err := h.service.Resolve(c.Request.Context(), parish, c.Query("city"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"parish": parish, "rate": rate})
}

func (h *Handler) ListRates(c *gin.Context) {
	rates, err := h.service.ListRates(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rates)
}

func (h *Handler) CreateRate(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateShippingRateRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	rate, err := h.service.CreateRate(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, rate)
}

func (h *Handler) UpdateRate(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateShippingRateRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	rate, err := h.service.UpdateRate(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rate)
}

func (h *Handler) DeleteRate(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeleteRate(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nil)
}
