package order

import (
	"github.com/gin-gonic/gin"

	"github.com/royaltymeds/pharmacy-api/internal/handler"
	"github.com/royaltymeds/pharmacy-api/internal/middleware"
	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/service/order"
	"github.com/royaltymeds/pharmacy-api/pkg/httputil"
	"github.com/royaltymeds/pharmacy-api/pkg/validator"
)

type Handler struct {
	service   *order.Service
	validator *validator.Validator
}

func NewHandler(service *order.Service, val *validator.Validator) *Handler {
	return &Handler{service: service, validator: val}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	orders := r.Group("/orders")
	{
		orders.POST("/checkout", h.Checkout)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/payment-proof", h.AttachPaymentProof)
		orders.PATCH("/:id", authMw.RequireRole(model.RoleAdmin), h.Update)
	}
}

func (h *Handler) Checkout(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CheckoutRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	o, err := h.service.Checkout(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, o)
}

func (h *Handler) List(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var filters model.OrderFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	orders, total, err := h.service.List(c.Request.Context(), actor, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, orders, filters.Page, filters.PageSize, total)
}

func (h *Handler) Get(c *gin.Context) {
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

	o, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, o)
}

func (h *Handler) Update(c *gin.Context) {
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

	var req model.UpdateOrderRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	o, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, o)
}

func (h *Handler) AttachPaymentProof(c *gin.Context) {
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

	var req model.AttachPaymentProofRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	o, err := h.service.AttachPaymentProof(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, o)
}
