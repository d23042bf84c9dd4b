package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/warehouse/internal/domain/errors"
	pkgAuth "github.com/polkiloo/warehouse/internal/pkg/auth"
	"github.com/polkiloo/warehouse/internal/server/http/dto"
	"github.com/polkiloo/warehouse/internal/server/http/middleware"
)

const internalErrorMessage = "database error"

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// pathID parses a positive numeric path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: message})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var carrierErr *domainErrors.CarrierError

	switch {
	case errors.Is(err, domainErrors.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, pkgAuth.ErrInvalidToken):
		abortWithError(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domainErrors.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domainErrors.ErrNoLabels):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &carrierErr):
		message := carrierErr.Message
		if message == "" {
			message = carrierErr.Error()
		}
		abortWithError(c, http.StatusUnprocessableEntity, message)
	case errors.Is(err, domainErrors.ErrReservationShortfall):
		abortWithError(c, http.StatusInternalServerError, err.Error())
	default:
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, internalErrorMessage)
	}
}
