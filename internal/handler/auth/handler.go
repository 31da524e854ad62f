package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/royaltymeds/pharmacy-api/internal/handler"
	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/service/auth"
	"github.com/royaltymeds/pharmacy-api/pkg/httputil"
	"github.com/royaltymeds/pharmacy-api/pkg/validator"
)

type Handler struct {
	service   *auth.Service
	validator *validator.Validator
}

func NewHandler(service *auth.Service, val *validator.Validator) *Handler {
	return &Handler{service: service, validator: val}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := handler.Bind(c, h.validator, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resp, err := h.service.Refresh(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}
