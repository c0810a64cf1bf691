package middleware

import (
	"bytes"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"go.uber.org/zap"
)

const maxLoggedBody = 512

type responseRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if r.body.Len() < maxLoggedBody {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

func (r *responseRecorder) WriteString(data string) (int, error) {
	if r.body.Len() < maxLoggedBody {
		r.body.WriteString(data)
	}
	return r.ResponseWriter.WriteString(data)
}

// RequestLogger logs HTTP requests. Response bodies are only logged for JSON
// responses so report downloads never end up in the logs.
func RequestLogger(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		recorder := &responseRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("service", serviceName),
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("response_size", c.Writer.Size()),
		}

		if strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "application/json") {
			if body := compactPayload(recorder.body.Bytes()); body != "" {
				fields = append(fields, zap.String("response_body", body))
			}
		}

		reqLogger := logger.WithContext(c.Request.Context())

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			reqLogger.Error("Request completed with errors", fields...)
		} else {
			reqLogger.Info("Request completed", fields...)
		}
	}
}

func compactPayload(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}

	compacted := strings.Join(strings.Fields(string(payload)), " ")
	if len(compacted) > maxLoggedBody {
		compacted = compacted[:maxLoggedBody] + "...(truncated)"
	}
	return compacted
}
