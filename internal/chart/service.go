package chart

import (
	"context"
	"fmt"
	"time"

	"github.com/richxcame/fleet-analytics/internal/analytics"
	"github.com/richxcame/fleet-analytics/internal/period"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"go.uber.org/zap"
)

// Set is the chart payload of one view
type Set struct {
	View        string    `json:"view"`
	PeriodLabel string    `json:"period_label,omitempty"`
	Generation  uint64    `json:"generation,omitempty"`
	Charts      []Spec    `json:"charts"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Service turns analytics views into chart sets
type Service struct {
	analytics *analytics.Service
	symbol    string
	dashboard *Holder
}

// NewService creates a chart service. dashboard may be nil, in which case
// dashboard charts are computed on every request.
func NewService(analyticsService *analytics.Service, symbol string, dashboard *Holder) *Service {
	return &Service{analytics: analyticsService, symbol: symbol, dashboard: dashboard}
}

// DefaultPeriod is the period kind a view falls back to
func DefaultPeriod(view string) period.Kind {
	if view == ViewFleet {
		return period.KindYear
	}
	return period.KindMonth
}

// RefreshDashboard recomputes the dashboard charts into the holder.
func (s *Service) RefreshDashboard(ctx context.Context) error {
	if s.dashboard == nil {
		return nil
	}
	view, err := s.analytics.Dashboard(ctx)
	if err != nil {
		return fmt.Errorf("dashboard charts: %w", err)
	}
	handle := s.dashboard.Replace(Dashboard(view, s.symbol), view.PeriodLabel, s.analytics.Now())
	logger.DebugContext(ctx, "dashboard charts refreshed", zap.Uint64("generation", handle.Generation))
	return nil
}

// Charts builds the chart set of view. id is required for the vehicle and
// driver views and ignored otherwise.
func (s *Service) Charts(ctx context.Context, view, id string, p period.Period) (*Set, error) {
	set := &Set{View: view, GeneratedAt: s.analytics.Now()}

	switch view {
	case ViewDashboard:
		if s.dashboard != nil {
			if handle, ok := s.dashboard.Current(); ok {
				set.Generation = handle.Generation
				set.PeriodLabel = handle.PeriodLabel
				set.Charts = handle.Charts
				set.GeneratedAt = handle.CreatedAt
				return set, nil
			}
		}
		v, err := s.analytics.Dashboard(ctx)
		if err != nil {
			return nil, err
		}
		set.PeriodLabel = v.PeriodLabel
		set.Charts = Dashboard(v, s.symbol)
		if s.dashboard != nil {
			handle := s.dashboard.Replace(set.Charts, set.PeriodLabel, set.GeneratedAt)
			set.Generation = handle.Generation
		}

	case ViewFuel:
		v, err := s.analytics.Fuel(ctx, p)
		if err != nil {
			return nil, err
		}
		set.PeriodLabel = v.PeriodLabel
		set.Charts = Fuel(v, s.symbol)

	case ViewMaintenance:
		v, err := s.analytics.Maintenance(ctx, p)
		if err != nil {
			return nil, err
		}
		set.PeriodLabel = v.PeriodLabel
		set.Charts = Maintenance(v, s.symbol)

	case ViewFleet:
		v, err := s.analytics.Fleet(ctx, p)
		if err != nil {
			return nil, err
		}
		set.PeriodLabel = v.PeriodLabel
		set.Charts = Fleet(v, s.symbol)

	case ViewVehicle:
		if id == "" {
			return nil, common.NewBadRequestError("vehicle id is required", nil)
		}
		v, err := s.analytics.Vehicle(ctx, id, p)
		if err != nil {
			return nil, err
		}
		set.PeriodLabel = v.PeriodLabel
		set.Charts = Vehicle(v, s.symbol)

	case ViewDriver:
		if id == "" {
			return nil, common.NewBadRequestError("driver id is required", nil)
		}
		v, err := s.analytics.Driver(ctx, id)
		if err != nil {
			return nil, err
		}
		set.Charts = Driver(v)

	default:
		return nil, common.NewNotFoundError(fmt.Sprintf("unknown chart view %q", view), nil)
	}

	return set, nil
}
