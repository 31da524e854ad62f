package refill

import (
	"github.com/gin-gonic/gin"

	"github.com/royaltymeds/pharmacy-api/internal/handler"
	"github.com/royaltymeds/pharmacy-api/internal/middleware"
	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/service/refill"
	"github.com/royaltymeds/pharmacy-api/pkg/httputil"
	"github.com/royaltymeds/pharmacy-api/pkg/validator"
)

type Handler struct {
	service   *refill.Service
	validator *validator.Validator
}

func NewHandler(service *refill.Service, val *validator.Validator) *Handler {
	return &Handler{service: service, validator: val}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	refills := r.Group("/refills")
	{
		refills.GET("", h.List)
		refills.PATCH("/:id", authMw.RequireRole(model.RoleAdmin), h.Resolve)
	}

	r.POST("/prescriptions/:id/refill", authMw.RequireRole(model.RolePatient), h.Request)
}

func (h *Handler) Request(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	prescriptionID, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	req, err := h.service.Request(c.Request.Context(), actor, prescriptionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, req)
}

func (h *Handler) List(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var filters model.RefillFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	refills, total, err := h.service.List(c.Request.Context(), actor, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, refills, filters.Page, filters.PageSize, total)
}

func (h *Handler) Resolve(c *gin.Context) {
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

	var req model.ResolveRefillRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resolved, err := h.service.Resolve(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resolved)
}
