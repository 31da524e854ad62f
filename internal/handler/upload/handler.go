package upload

import (
	"github.com/gin-gonic/gin"

	"github.com/royaltymeds/pharmacy-api/internal/storage"
	apperrors "github.com/royaltymeds/pharmacy-api/pkg/errors"
	"github.com/royaltymeds/pharmacy-api/pkg/httputil"
)

const maxUploadSize = 10 << 20

// allowedPrefixes maps the upload kind to its bucket prefix.
var allowedPrefixes = map[string]string{
	"prescription":  "prescriptions",
	"proof":         "fulfillment-proofs",
	"payment-proof": "payment-proofs",
	"drug-image":    "drug-images",
}

type Handler struct {
	storage storage.Storage
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	uploads := r.Group("/uploads")
	{
		uploads.POST("/:kind", h.Upload)
		uploads.GET("/url", h.PresignedURL)
	}
}

// Upload stores a multipart file and returns its storage key.
func (h *Handler) Upload(c *gin.Context) {
	prefix, ok := allowedPrefixes[c.Param("kind")]
	if !ok {
		httputil.RespondWithError(c, apperrors.BadRequest("unknown upload kind", nil))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("file is required", err))
		return
	}
	if fileHeader.Size > maxUploadSize {
		httputil.RespondWithError(c, apperrors.BadRequest("file exceeds the 10MB limit", nil))
		return
	}

	key, err := h.storage.Upload(c.Request.Context(), fileHeader, prefix)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, gin.H{"key": key})
}

// PresignedURL returns a short-lived download URL for a stored file.
func (h *Handler) PresignedURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		httputil.RespondWithError(c, apperrors.BadRequest("key is required", nil))
		return
	}

	url, err := h.storage.PresignedURL(c.Request.Context(), key)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"url": url})
}
