package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/config"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"go.uber.org/zap"
)

// TimeoutHeader marks responses cut short by the request deadline
const TimeoutHeader = "X-Timeout"

// RequestTimeout puts a deadline on the request context, sized per route by
// cfg. Handlers see it through their backend calls; a request that reaches
// the deadline without writing a response gets a 504.
func RequestTimeout(cfg *config.TimeoutConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		timeout := cfg.TimeoutForRoute(c.Request.Method, c.FullPath())
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		logger.WarnContext(ctx, "Request timeout",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Duration("timeout", timeout),
		)
		if !c.Writer.Written() {
			c.Header(TimeoutHeader, "true")
			common.ErrorResponse(c, http.StatusGatewayTimeout, "request timeout")
			c.Abort()
		}
	}
}
