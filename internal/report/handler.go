package report

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet-analytics/internal/analytics"
	"github.com/richxcame/fleet-analytics/internal/period"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/middleware"
)

// Handler handles HTTP requests for report generation
type Handler struct {
	generator *Generator
}

// NewHandler creates a new report handler
func NewHandler(generator *Generator) *Handler {
	return &Handler{generator: generator}
}

// GenerateReport builds a report and streams it back as a download. With
// download=false only the metadata is returned.
func (h *Handler) GenerateReport(c *gin.Context) {
	kind, err := ParseKind(c.Param("kind"))
	if common.HandleServiceError(c, err, "invalid report kind") {
		return
	}
	format, err := ParseFormat(c.Query("format"))
	if common.HandleServiceError(c, err, "invalid report format") {
		return
	}

	defaultKind := period.KindMonth
	if kind == KindFleet {
		defaultKind = period.KindYear
	}
	p, err := analytics.QueryPeriod(c, defaultKind, h.generator.views.Now())
	if common.HandleServiceError(c, err, "invalid period") {
		return
	}

	userID, _ := middleware.GetUserID(c)
	result, err := h.generator.Generate(c.Request.Context(), Request{
		Kind:        kind,
		Format:      format,
		Period:      p,
		GeneratedBy: userID,
	})
	if common.HandleServiceError(c, err, "failed to generate report") {
		return
	}

	if download, _ := strconv.ParseBool(c.DefaultQuery("download", "true")); !download {
		common.SuccessResponse(c, result)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	if result.Location != "" {
		c.Header("X-Report-Location", result.Location)
	}
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// RegisterRoutes registers report routes on an existing router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.POST("/:kind", h.GenerateReport)
	}
}
