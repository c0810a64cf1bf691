package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richxcame/fleet-analytics/pkg/cache"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/eventbus"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"github.com/richxcame/fleet-analytics/pkg/validation"
	"go.uber.org/zap"
)

const eventSource = "fleet-analytics"

// Invalidator drops cached views after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, prefix string) error
}

// Service relays console writes to the backend, applying the console's write rules.
type Service struct {
	repo   RepositoryInterface
	cache  Invalidator
	events eventbus.Publisher
}

// NewService creates a fleet write service. cache and events may be nil.
func NewService(repo RepositoryInterface, cache Invalidator, events eventbus.Publisher) *Service {
	return &Service{repo: repo, cache: cache, events: events}
}

// ========================================
// FUEL
// ========================================

// RecordFuelEntry creates a fill-up. Only liters and total cost are sent;
// the price per liter stays derived.
func (s *Service) RecordFuelEntry(ctx context.Context, req *CreateFuelEntryRequest) (*FuelEntry, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	entry, err := s.repo.CreateFuelEntry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create fuel entry: %w", err)
	}

	s.afterWrite(ctx, CollectionFuel, entry.ID, "created")
	return entry, nil
}

// ========================================
// TRIPS
// ========================================

// CreateTrip records a trip and raises the vehicle odometer when needed.
func (s *Service) CreateTrip(ctx context.Context, req *TripRequest) (*Trip, error) {
	payload, err := buildTripPayload(req)
	if err != nil {
		return nil, err
	}

	trip, err := s.repo.CreateTrip(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	s.raiseOdometer(ctx, req.VehicleID, req.EndKm)
	s.afterWrite(ctx, CollectionTrips, trip.ID, "created")
	return trip, nil
}

// UpdateTrip replaces a trip and raises the vehicle odometer when needed.
func (s *Service) UpdateTrip(ctx context.Context, id string, req *TripRequest) (*Trip, error) {
	payload, err := buildTripPayload(req)
	if err != nil {
		return nil, err
	}

	trip, err := s.repo.UpdateTrip(ctx, id, payload)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewNotFoundError("trip not found", err)
		}
		return nil, fmt.Errorf("update trip: %w", err)
	}

	s.raiseOdometer(ctx, req.VehicleID, req.EndKm)
	s.afterWrite(ctx, CollectionTrips, id, "updated")
	return trip, nil
}

func buildTripPayload(req *TripRequest) (*tripPayload, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := validation.ValidateOdometer(req.StartKm, req.EndKm); err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	payload := &tripPayload{TripRequest: *req, EndKm: req.EndKm}
	if payload.Status == "" {
		payload.Status = TripInProgress
	}
	if req.EndKm != nil {
		distance := *req.EndKm - req.StartKm
		payload.Distance = &distance
	}
	return payload, nil
}

// raiseOdometer is best effort: the trip is already saved.
func (s *Service) raiseOdometer(ctx context.Context, vehicleID string, endKm *float64) {
	if endKm == nil || vehicleID == "" {
		return
	}

	vehicle, err := s.repo.GetVehicle(ctx, vehicleID)
	if err != nil {
		logger.WarnContext(ctx, "failed to load vehicle for odometer update",
			zap.String("vehicle_id", vehicleID), zap.Error(err))
		return
	}
	if *endKm <= vehicle.Odometer {
		return
	}

	if err := s.repo.UpdateOdometer(ctx, vehicleID, *endKm); err != nil {
		logger.WarnContext(ctx, "failed to raise vehicle odometer",
			zap.String("vehicle_id", vehicleID), zap.Float64("km", *endKm), zap.Error(err))
		return
	}
	s.afterWrite(ctx, CollectionVehicles, vehicleID, "updated")
}

// ========================================
// SCHEDULED MAINTENANCE
// ========================================

// CompleteScheduled closes a scheduled maintenance reminder.
func (s *Service) CompleteScheduled(ctx context.Context, id string) error {
	if err := s.repo.CompleteScheduled(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewNotFoundError("scheduled maintenance not found", err)
		}
		return fmt.Errorf("complete scheduled maintenance: %w", err)
	}

	s.afterWrite(ctx, CollectionScheduled, id, "completed")
	return nil
}

// afterWrite drops cached views and announces the change. Failures are logged only.
func (s *Service) afterWrite(ctx context.Context, collection, id, action string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cache.AnalyticsPrefix); err != nil {
			logger.WarnContext(ctx, "failed to invalidate analytics cache", zap.Error(err))
		}
	}

	if s.events == nil {
		return
	}
	event, err := eventbus.NewEvent(eventbus.SubjectRecordsChanged, eventSource, eventbus.RecordsChangedData{
		Collection: collection,
		RecordID:   id,
		Action:     action,
		At:         time.Now().UTC(),
	})
	if err == nil {
		err = s.events.Publish(ctx, eventbus.SubjectRecordsChanged, event)
	}
	if err != nil {
		logger.WarnContext(ctx, "failed to publish records changed event",
			zap.String("collection", collection), zap.Error(err))
	}
}

func validate(req interface{}) error {
	if err := validation.ValidateStruct(req); err != nil {
		return common.NewValidationError(err.Error())
	}
	return nil
}
