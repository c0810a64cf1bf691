package analytics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/period"
	"github.com/richxcame/fleet-analytics/pkg/cache"
	"github.com/richxcame/fleet-analytics/pkg/tracing"
	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "fleet-analytics/analytics"

// Collections read by each view.
const (
	needDashboard   = fleet.NeedVehicles | fleet.NeedDrivers | fleet.NeedTrips | fleet.NeedFuel | fleet.NeedMaintenance | fleet.NeedScheduled | fleet.NeedAlerts
	needFuel        = fleet.NeedVehicles | fleet.NeedDrivers | fleet.NeedFuel
	needMaintenance = fleet.NeedVehicles | fleet.NeedMaintenance | fleet.NeedScheduled
	needTrips       = fleet.NeedVehicles | fleet.NeedDrivers | fleet.NeedTrips
	needFleet       = fleet.NeedVehicles | fleet.NeedDrivers | fleet.NeedTrips | fleet.NeedFuel | fleet.NeedMaintenance
	needVehicle     = needFleet
	needDriver      = needFleet
)

var computeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "analytics",
		Name:      "compute_duration_seconds",
		Help:      "Time spent computing a view from a loaded snapshot",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	},
	[]string{"view"},
)

// SnapshotLoader provides the input of a computation pass
type SnapshotLoader interface {
	Load(ctx context.Context, need fleet.Need) (*fleet.Snapshot, error)
}

// ViewCache stores computed views, satisfied by *cache.Manager.
type ViewCache interface {
	GetOrSet(ctx context.Context, key string, ttl time.Duration, result interface{}, fn func() (interface{}, error)) error
}

// Service loads a snapshot per request and computes views from it.
type Service struct {
	loader SnapshotLoader
	cache  ViewCache
	ttl    time.Duration
	clock  clockz.Clock
}

// NewService creates a new analytics service. cache may be nil; a nil
// clock uses wall time.
func NewService(loader SnapshotLoader, viewCache ViewCache, ttl time.Duration, clock clockz.Clock) *Service {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{loader: loader, cache: viewCache, ttl: ttl, clock: clock}
}

// Now is the anchor of every period computed by the service.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Snapshot loads the requested collections.
func (s *Service) Snapshot(ctx context.Context, need fleet.Need) (*fleet.Snapshot, error) {
	return s.loader.Load(ctx, need)
}

// Dashboard computes the home screen for the current month.
func (s *Service) Dashboard(ctx context.Context) (*DashboardView, error) {
	now := s.Now()
	key := cache.Keys.Analytics("dashboard", now.Format("2006-01-02"))
	return compute(ctx, s, "dashboard", key, needDashboard, func(snap *fleet.Snapshot) (*DashboardView, error) {
		return Dashboard(snap, now), nil
	})
}

// Fuel computes the fuel view for p.
func (s *Service) Fuel(ctx context.Context, p period.Period) (*FuelView, error) {
	key := cache.Keys.Analytics("fuel", p.Key())
	return compute(ctx, s, "fuel", key, needFuel, func(snap *fleet.Snapshot) (*FuelView, error) {
		return Fuel(snap, p), nil
	})
}

// Maintenance computes the maintenance view for p.
func (s *Service) Maintenance(ctx context.Context, p period.Period) (*MaintenanceView, error) {
	now := s.Now()
	key := cache.Keys.Analytics("maintenance", p.Key(), now.Format("2006-01-02"))
	return compute(ctx, s, "maintenance", key, needMaintenance, func(snap *fleet.Snapshot) (*MaintenanceView, error) {
		return Maintenance(snap, p, now), nil
	})
}

// Trips filters and sorts trips. Listings are never cached.
func (s *Service) Trips(ctx context.Context, filter TripFilter) (*TripsView, error) {
	now := s.Now()
	return compute(ctx, s, "trips", "", needTrips, func(snap *fleet.Snapshot) (*TripsView, error) {
		return Trips(snap, filter, now), nil
	})
}

// Fleet computes fleet-wide statistics for p.
func (s *Service) Fleet(ctx context.Context, p period.Period) (*FleetView, error) {
	key := cache.Keys.Analytics("fleet", p.Key())
	return compute(ctx, s, "fleet", key, needFleet, func(snap *fleet.Snapshot) (*FleetView, error) {
		return Fleet(snap, p), nil
	})
}

// Vehicle computes the detail view of one vehicle.
func (s *Service) Vehicle(ctx context.Context, vehicleID string, p period.Period) (*VehicleDetailView, error) {
	now := s.Now()
	key := cache.Keys.Analytics("vehicle", vehicleID, p.Key(), now.Format("2006-01-02"))
	return compute(ctx, s, "vehicle", key, needVehicle, func(snap *fleet.Snapshot) (*VehicleDetailView, error) {
		return VehicleDetail(snap, vehicleID, p, now)
	})
}

// Driver computes the history of one driver.
func (s *Service) Driver(ctx context.Context, driverID string) (*DriverDetailView, error) {
	now := s.Now()
	key := cache.Keys.Analytics("driver", driverID, now.Format("2006"))
	return compute(ctx, s, "driver", key, needDriver, func(snap *fleet.Snapshot) (*DriverDetailView, error) {
		return DriverDetail(snap, driverID, now)
	})
}

// compute loads the snapshot and builds the view, through the cache when a
// key is given and a cache is configured.
func compute[V any](ctx context.Context, s *Service, view, key string, need fleet.Need, build func(*fleet.Snapshot) (*V, error)) (*V, error) {
	run := func(ctx context.Context) (*V, error) {
		snap, err := s.loader.Load(ctx, need)
		if err != nil {
			return nil, err
		}

		var out *V
		start := time.Now()
		err = tracing.TraceCompute(ctx, tracerName, "analytics."+view,
			[]attribute.KeyValue{tracing.ViewKey.String(view)},
			func(context.Context) error {
				var err error
				out, err = build(snap)
				return err
			})
		computeDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
		return out, err
	}

	if s.cache == nil || key == "" {
		return run(ctx)
	}

	out := new(V)
	err := s.cache.GetOrSet(ctx, key, s.ttl, out, func() (interface{}, error) {
		return run(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
