package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the console origins listed in the comma-separated origins string.
// A "*" entry allows any origin.
func CORS(origins string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", CorrelationIDHeader, IdempotencyKeyHeader},
		ExposeHeaders:    []string{"Content-Disposition", CorrelationIDHeader, TraceIDHeader, IdempotentReplayHeader, TimeoutHeader},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}

	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		switch {
		case o == "*":
			cfg.AllowOriginFunc = func(string) bool { return true }
		case o != "":
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	if cfg.AllowOriginFunc == nil && len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:4200"}
	}

	return cors.New(cfg)
}
