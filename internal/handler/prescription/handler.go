package prescription

import (
	"github.com/gin-gonic/gin"

	"github.com/royaltymeds/pharmacy-api/internal/handler"
	"github.com/royaltymeds/pharmacy-api/internal/middleware"
	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/service/prescription"
	"github.com/royaltymeds/pharmacy-api/pkg/httputil"
	"github.com/royaltymeds/pharmacy-api/pkg/validator"
)

type Handler struct {
	service   *prescription.Service
	validator *validator.Validator
}

func NewHandler(service *prescription.Service, val *validator.Validator) *Handler {
	return &Handler{service: service, validator: val}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	prescriptions := r.Group("/prescriptions")
	{
		prescriptions.POST("", authMw.RequireRole(model.RolePatient), h.Create)
		prescriptions.POST("/submit", authMw.RequireRole(model.RoleDoctor), h.Submit)
		prescriptions.GET("", h.List)
		prescriptions.GET("/:id", h.Get)
		prescriptions.DELETE("/:id", authMw.RequireRole(model.RoleDoctor), h.Delete)

		admin := prescriptions.Group("", authMw.RequireRole(model.RoleAdmin))
		{
			admin.PATCH("/:id/status", h.UpdateStatus)
			admin.POST("/:id/fill", h.Fill)
			admin.POST("/:id/items", h.AddItem)
			admin.PUT("/:id/items/:itemId", h.UpdateItem)
			admin.DELETE("/:id/items/:itemId", h.DeleteItem)
		}
	}
}

func (h *Handler) Create(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreatePrescriptionRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) Submit(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.SubmitPrescriptionRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) List(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var filters model.PrescriptionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	prescriptions, total, err := h.service.List(c.Request.Context(), actor, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, prescriptions, filters.Page, filters.PageSize, total)
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

	p, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
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

func (h *Handler) UpdateStatus(c *gin.Context) {
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

	var req model.UpdatePrescriptionStatusRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.UpdateStatus(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) Fill(c *gin.Context) {
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

	var req model.FillPrescriptionRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.Fill(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) AddItem(c *gin.Context) {
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

	var req model.AddPrescriptionItemRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, item)
}

func (h *Handler) UpdateItem(c *gin.Context) {
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
	itemID, err := handler.ParseID(c, "itemId")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdatePrescriptionItemRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	item, err := h.service.UpdateItem(c.Request.Context(), actor, id, itemID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, item)
}

func (h *Handler) DeleteItem(c *gin.Context) {
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
	itemID, err := handler.ParseID(c, "itemId")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeleteItem(c.Request.Context(), actor, id, itemID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nil)
}
