package audit

import (
	"github.com/gin-gonic/gin"

	"github.com/royaltymeds/pharmacy-api/internal/middleware"
	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/service/audit"
	"github.com/royaltymeds/pharmacy-api/pkg/httputil"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	r.GET("/audit-logs", authMw.RequireRole(model.RoleAdmin), h.List)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.AuditFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	logs, total, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, logs, filters.Page, filters.PageSize, total)
}
