package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-cafe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-cafe-api/internal/models"
	"github.com/franciscosanchezn/gin-cafe-api/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type errorMapping struct {
	kind   error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrDishNotFound, http.StatusNotFound, models.ErrDishNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound, models.ErrOrderNotFound},
	{services.ErrOrderItemNotFound, http.StatusNotFound, models.ErrOrderItemNotFound},
	{services.ErrDishInUse, http.StatusConflict, models.ErrDishInUse},
	{services.ErrEmptyOrder, http.StatusBadRequest, models.ErrOrderEmpty},
	{services.ErrOrderImmutable, http.StatusBadRequest, models.ErrOrderImmutable},
	{services.ErrInvalidStatusTransition, http.StatusBadRequest, models.ErrInvalidStatusTransition},
	{services.ErrValidation, http.StatusBadRequest, models.ErrValidationFailed},
}

// respondError writes the APIError matching err and aborts the request.
// Errors without a domain kind are logged and reported as a generic 500.
func respondError(ctx *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			ctx.AbortWithStatusJSON(m.status, models.NewAPIError(m.code, err.Error()))
			return
		}
	}

	log.WithFields(log.Fields{
		"method":     ctx.Request.Method,
		"path":       ctx.FullPath(),
		"request_id": ctx.GetString(middleware.RequestIDKey),
		"error":      err.Error(),
	}).Error("Request failed")
	ctx.AbortWithStatusJSON(http.StatusInternalServerError,
		models.NewAPIError(models.ErrInternalServer, "An internal error occurred"))
}

func respondBadRequest(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, message))
}

// parseID reads a positive numeric path parameter
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondBadRequest(ctx, "Invalid "+name+" format")
		return 0, false
	}
	return uint(id), true
}
