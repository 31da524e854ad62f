package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/royaltymeds/pharmacy-api/internal/middleware"
	"github.com/royaltymeds/pharmacy-api/internal/model"
	apperrors "github.com/royaltymeds/pharmacy-api/pkg/errors"
	"github.com/royaltymeds/pharmacy-api/pkg/validator"
)

// Bind decodes the JSON body and validates it. Returns an error already
// mapped onto the HTTP error taxonomy.
func Bind(c *gin.Context, val *validator.Validator, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return apperrors.BadRequest("invalid request body", err)
	}
	if err := val.Validate(obj); err != nil {
		return apperrors.BadRequest(err.Error(), err)
	}
	return nil
}

// ParseID parses a UUID path parameter.
func ParseID(c *gin.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid id", err)
	}
	return id, nil
}

// Actor returns the authenticated actor placed in context by the auth
// middleware.
func Actor(c *gin.Context) (model.Actor, error) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return model.Actor{}, apperrors.Unauthorized(nil)
	}
	return actor, nil
}
