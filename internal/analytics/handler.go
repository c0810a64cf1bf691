package analytics

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet-analytics/internal/period"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/pagination"
)

// Handler handles HTTP requests for analytics
type Handler struct {
	service *Service
}

// NewHandler creates a new analytics handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetDashboard handles the home screen summary
func (h *Handler) GetDashboard(c *gin.Context) {
	view, err := h.service.Dashboard(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to compute dashboard") {
		return
	}
	common.SuccessResponse(c, view)
}

// GetFuel handles fuel statistics requests
func (h *Handler) GetFuel(c *gin.Context) {
	p, err := QueryPeriod(c, period.KindMonth, h.service.Now())
	if common.HandleServiceError(c, err, "invalid period") {
		return
	}

	view, err := h.service.Fuel(c.Request.Context(), p)
	if common.HandleServiceError(c, err, "failed to compute fuel statistics") {
		return
	}
	common.SuccessResponse(c, view)
}

// GetMaintenance handles maintenance statistics requests
func (h *Handler) GetMaintenance(c *gin.Context) {
	p, err := QueryPeriod(c, period.KindMonth, h.service.Now())
	if common.HandleServiceError(c, err, "invalid period") {
		return
	}

	view, err := h.service.Maintenance(c.Request.Context(), p)
	if common.HandleServiceError(c, err, "failed to compute maintenance statistics") {
		return
	}
	common.SuccessResponse(c, view)
}

// GetTrips handles the filtered trip listing
func (h *Handler) GetTrips(c *gin.Context) {
	filter := TripFilter{
		Search:    c.Query("search"),
		Date:      c.Query("date"),
		VehicleID: c.Query("vehicle_id"),
		DriverID:  c.Query("driver_id"),
		Sort:      c.DefaultQuery("sort", SortDateDesc),
	}

	switch filter.Sort {
	case SortDateAsc, SortDateDesc, SortKmAsc, SortKmDesc:
	default:
		common.AppErrorResponse(c, common.NewBadRequestError("sort must be one of date-asc, date-desc, km-asc, km-desc", nil))
		return
	}
	if filter.Date != "" {
		if _, ok := parseDay(filter.Date); !ok {
			common.AppErrorResponse(c, common.NewBadRequestError("invalid date", nil))
			return
		}
	}
	if c.Query("period") != "" || c.Query("start_date") != "" {
		p, err := QueryPeriod(c, period.KindRange, h.service.Now())
		if common.HandleServiceError(c, err, "invalid period") {
			return
		}
		filter.Period = &p
	}

	page, err := pagination.ParseParams(c)
	if common.HandleServiceError(c, err, "invalid pagination") {
		return
	}

	view, err := h.service.Trips(c.Request.Context(), filter)
	if common.HandleServiceError(c, err, "failed to list trips") {
		return
	}
	if !page.Enabled() {
		common.SuccessResponse(c, view)
		return
	}

	// statistics stay computed over every matching trip
	paged := *view
	paged.Trips = pagination.Page(view.Trips, page)
	common.SuccessResponseWithMeta(c, &paged, pagination.BuildMeta(page, view.Count))
}

// GetFleet handles fleet-wide statistics, scoped to the year by default
func (h *Handler) GetFleet(c *gin.Context) {
	p, err := QueryPeriod(c, period.KindYear, h.service.Now())
	if common.HandleServiceError(c, err, "invalid period") {
		return
	}

	view, err := h.service.Fleet(c.Request.Context(), p)
	if common.HandleServiceError(c, err, "failed to compute fleet statistics") {
		return
	}
	common.SuccessResponse(c, view)
}

// GetVehicle handles the detail view of one vehicle
func (h *Handler) GetVehicle(c *gin.Context) {
	id, ok := common.RequireParam(c, "id", "vehicle id")
	if !ok {
		return
	}
	p, err := QueryPeriod(c, period.KindMonth, h.service.Now())
	if common.HandleServiceError(c, err, "invalid period") {
		return
	}

	view, err := h.service.Vehicle(c.Request.Context(), id, p)
	if common.HandleServiceError(c, err, "failed to compute vehicle detail") {
		return
	}
	common.SuccessResponse(c, view)
}

// GetDriver handles the history of one driver
func (h *Handler) GetDriver(c *gin.Context) {
	id, ok := common.RequireParam(c, "id", "driver id")
	if !ok {
		return
	}

	view, err := h.service.Driver(c.Request.Context(), id)
	if common.HandleServiceError(c, err, "failed to compute driver detail") {
		return
	}
	common.SuccessResponse(c, view)
}

// QueryPeriod reads period, start_date and end_date. An absent period uses
// defaultKind; a range without explicit kind is implied by end_date.
func QueryPeriod(c *gin.Context, defaultKind period.Kind, now time.Time) (period.Period, error) {
	kind := strings.TrimSpace(c.Query("period"))
	if kind == "" {
		kind = string(defaultKind)
		if c.Query("end_date") != "" {
			kind = string(period.KindRange)
		}
	}
	return period.Parse(kind, c.Query("start_date"), c.Query("end_date"), now)
}

// RegisterRoutes registers analytics routes on an existing router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	analytics := rg.Group("/analytics")
	{
		analytics.GET("/dashboard", h.GetDashboard)
		analytics.GET("/fuel", h.GetFuel)
		analytics.GET("/maintenance", h.GetMaintenance)
		analytics.GET("/trips", h.GetTrips)
		analytics.GET("/fleet", h.GetFleet)
		analytics.GET("/vehicles/:id", h.GetVehicle)
		analytics.GET("/drivers/:id", h.GetDriver)
	}
}
