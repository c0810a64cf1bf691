package common

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"go.uber.org/zap"
)

// HandleServiceError writes the response for a service error.
// Returns true if an error was handled (and response was sent), false otherwise.
//
// Usage:
//
//	view, err := h.service.Dashboard(ctx)
//	if HandleServiceError(c, err, "failed to compute dashboard") {
//	    return
//	}
func HandleServiceError(c *gin.Context, err error, fallbackMessage string) bool {
	if err == nil {
		return false
	}

	// The request deadline fired while the backend call was in flight.
	if errors.Is(err, context.DeadlineExceeded) && c.Request.Context().Err() != nil {
		logger.WarnContext(c.Request.Context(), fallbackMessage, zap.Error(err))
		ErrorResponse(c, http.StatusGatewayTimeout, "request timeout")
		return true
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		AppErrorResponse(c, appErr)
		return true
	}

	switch {
	case errors.Is(err, ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, "resource not found")
		return true
	case errors.Is(err, ErrUpstream):
		logger.WarnContext(c.Request.Context(), fallbackMessage, zap.Error(err))
		ErrorResponse(c, http.StatusBadGateway, "fleet backend unavailable")
		return true
	}

	logger.ErrorContext(c.Request.Context(), fallbackMessage, zap.Error(err))
	_ = c.Error(err)
	AppErrorResponse(c, NewInternalError(fallbackMessage, err))
	return true
}

// BindJSON binds JSON request body and sends error response on failure.
// Returns true on success, false on failure (response already sent).
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(c, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// RequireParam returns a non-empty path parameter or sends a 400.
func RequireParam(c *gin.Context, name, displayName string) (string, bool) {
	value := c.Param(name)
	if value == "" {
		ErrorResponse(c, http.StatusBadRequest, displayName+" is required")
		return "", false
	}
	return value, true
}
