package drug

import (
	"github.com/gin-gonic/gin"

	"github.com/royaltymeds/pharmacy-api/internal/handler"
	"github.com/royaltymeds/pharmacy-api/internal/middleware"
	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/service/drug"
	"github.com/royaltymeds/pharmacy-api/pkg/httputil"
	"github.com/royaltymeds/pharmacy-api/pkg/validator"
)

type Handler struct {
	service   *drug.Service
	validator *validator.Validator
}

func NewHandler(service *drug.Service, val *validator.Validator) *Handler {
	return &Handler{service: service, validator: val}
}

// RegisterRoutes mounts public catalog reads and admin-only mutations.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	public.GET("/drugs", h.List)
	public.GET("/drugs/:id", h.Get)

	drugs := admin.Group("/drugs", authMw.RequireRole(model.RoleAdmin))
	{
		drugs.POST("", h.Create)
		drugs.PUT("/:id", h.Update)
		drugs.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	var filters model.DrugFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	drugs, total, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, drugs, filters.Page, filters.PageSize, total)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}

func (h *Handler) Create(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateDrugRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	d, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, d)
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

	var req model.UpdateDrugRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	d, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}

func (h *Handler) Delete(c *gin.Context) {
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

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nil)
}
