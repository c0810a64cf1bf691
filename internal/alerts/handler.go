package alerts

import (
	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/middleware"
)

// Handler handles HTTP requests for alerts
type Handler struct {
	watcher *Watcher
}

// NewHandler creates a new alerts handler
func NewHandler(watcher *Watcher) *Handler {
	return &Handler{watcher: watcher}
}

// GetSummary returns the unread alert summary
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.watcher.Summary(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to load alerts") {
		return
	}
	common.SuccessResponse(c, summary)
}

// MarkRead acknowledges an alert
func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := common.RequireParam(c, "id", "alert ID")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	err := h.watcher.MarkRead(c.Request.Context(), id, userID)
	if common.HandleServiceError(c, err, "failed to mark alert as read") {
		return
	}
	common.SuccessResponse(c, gin.H{"id": id, "read": true})
}

// RegisterRoutes registers alert routes on an existing router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	alerts := rg.Group("/alerts")
	{
		alerts.GET("/summary", h.GetSummary)
		alerts.PATCH("/:id/read", h.MarkRead)
	}
}
