package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
)

// parseIntParam reads a numeric path parameter, failing the request on
// malformed input. The second return is false when the response was
// already written.
func parseIntParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return v, true
}

// failEngineError maps engine sentinel errors onto HTTP statuses and the
// response error taxonomy. Rejections are user-facing and final for the
// request; only STORAGE_TIMEOUT invites a client retry (503 + Retry-After).
func failEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionConflict):
		response.Fail(c, http.StatusConflict, response.ErrSessionConflict)
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, service.ErrSessionClosed):
		response.Fail(c, http.StatusGone, response.ErrSessionClosed)
	case errors.Is(err, service.ErrCodeMismatch):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrCodeMismatch)
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	case errors.Is(err, service.ErrStorageTimeout):
		c.Header("Retry-After", "1")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStorageTimeout)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
