package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/middleware"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced on the HTTP API; the token check below gates the socket
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket authenticates the console user and upgrades the connection.
func HandleWebSocket(c *gin.Context, hub *Hub, jwtSecret string) {
	tokenString := c.Query("token")
	if tokenString == "" {
		if parts := strings.Split(c.GetHeader("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}
	if tokenString == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "authorization required")
		return
	}

	claims, err := middleware.ParseToken(tokenString, jwtSecret)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("failed to upgrade websocket", zap.Error(err))
		return
	}

	client := NewClient(uuid.New().String(), claims.UserID, conn, hub)
	hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
