package chart

import (
	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet-analytics/internal/analytics"
	"github.com/richxcame/fleet-analytics/pkg/common"
)

// Handler handles HTTP requests for chart data
type Handler struct {
	service *Service
}

// NewHandler creates a new chart handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetCharts returns the chart specs of a view
func (h *Handler) GetCharts(c *gin.Context) {
	view := c.Param("view")

	p, err := analytics.QueryPeriod(c, DefaultPeriod(view), h.service.analytics.Now())
	if common.HandleServiceError(c, err, "invalid period") {
		return
	}

	set, err := h.service.Charts(c.Request.Context(), view, c.Param("id"), p)
	if common.HandleServiceError(c, err, "failed to build charts") {
		return
	}
	common.SuccessResponse(c, set)
}

// RegisterRoutes registers chart routes on an existing router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	charts := rg.Group("/charts")
	{
		charts.GET("/:view", h.GetCharts)
		charts.GET("/:view/:id", h.GetCharts)
	}
}
