package fleet

import (
	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/middleware"
)

// Handler exposes the write passthroughs
type Handler struct {
	service *Service
}

// NewHandler creates a new fleet handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RecordFuelEntry handles POST /fleet/fuel-entries
func (h *Handler) RecordFuelEntry(c *gin.Context) {
	var req CreateFuelEntryRequest
	if !common.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.RecordFuelEntry(c.Request.Context(), &req)
	if common.HandleServiceError(c, err, "failed to record fuel entry") {
		return
	}

	common.CreatedResponse(c, entry)
}

// CreateTrip handles POST /fleet/trips
func (h *Handler) CreateTrip(c *gin.Context) {
	var req TripRequest
	if !common.BindJSON(c, &req) {
		return
	}

	trip, err := h.service.CreateTrip(c.Request.Context(), &req)
	if common.HandleServiceError(c, err, "failed to create trip") {
		return
	}

	common.CreatedResponse(c, trip)
}

// UpdateTrip handles PUT /fleet/trips/:id
func (h *Handler) UpdateTrip(c *gin.Context) {
	id, ok := common.RequireParam(c, "id", "trip id")
	if !ok {
		return
	}

	var req TripRequest
	if !common.BindJSON(c, &req) {
		return
	}

	trip, err := h.service.UpdateTrip(c.Request.Context(), id, &req)
	if common.HandleServiceError(c, err, "failed to update trip") {
		return
	}

	common.SuccessResponse(c, trip)
}

// CompleteScheduled handles PATCH /fleet/scheduled-maintenance/:id/complete
func (h *Handler) CompleteScheduled(c *gin.Context) {
	id, ok := common.RequireParam(c, "id", "scheduled maintenance id")
	if !ok {
		return
	}

	if common.HandleServiceError(c, h.service.CompleteScheduled(c.Request.Context(), id), "failed to complete scheduled maintenance") {
		return
	}

	common.SuccessResponse(c, gin.H{"id": id, "statut": ScheduleCompleted})
}

// RegisterRoutes mounts the write routes on an authenticated group. The
// optional middleware runs on every write, ahead of the handlers.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, writes ...gin.HandlerFunc) {
	fleet := rg.Group("/fleet", writes...)
	{
		fleet.POST("/fuel-entries", h.RecordFuelEntry)
		fleet.POST("/trips", h.CreateTrip)
		fleet.PUT("/trips/:id", h.UpdateTrip)
		fleet.PATCH("/scheduled-maintenance/:id/complete", middleware.RequireAccess(middleware.AccessTotal), h.CompleteScheduled)
	}
}
