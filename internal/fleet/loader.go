package fleet

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zoobzio/clockz"
	"golang.org/x/sync/errgroup"
)

// Need selects the collections a computation reads.
type Need uint8

const (
	NeedVehicles Need = 1 << iota
	NeedDrivers
	NeedTrips
	NeedFuel
	NeedMaintenance
	NeedScheduled
	NeedAlerts

	NeedAll = NeedVehicles | NeedDrivers | NeedTrips | NeedFuel | NeedMaintenance | NeedScheduled | NeedAlerts
)

var (
	snapshotLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "snapshot_loads_total",
			Help:      "Snapshot loads by outcome",
		},
		[]string{"outcome"},
	)

	snapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fleet",
			Name:      "snapshot_load_duration_seconds",
			Help:      "Time spent joining backend collections into a snapshot",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Loader joins independent collection fetches into one snapshot.
type Loader struct {
	repo  RepositoryInterface
	clock clockz.Clock
}

// NewLoader creates a loader. A nil clock uses wall time.
func NewLoader(repo RepositoryInterface, clock clockz.Clock) *Loader {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Loader{repo: repo, clock: clock}
}

// Load fetches the requested collections concurrently. It returns either a
// complete snapshot or the first error; partial data is never returned.
func (l *Loader) Load(ctx context.Context, need Need) (*Snapshot, error) {
	start := time.Now()
	snap := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	fetch := func(n Need, fn func(context.Context) error) {
		if need&n != 0 {
			g.Go(func() error { return fn(gctx) })
		}
	}

	fetch(NeedVehicles, func(ctx context.Context) (err error) {
		snap.Vehicles, err = l.repo.ListVehicles(ctx)
		return err
	})
	fetch(NeedDrivers, func(ctx context.Context) (err error) {
		snap.Drivers, err = l.repo.ListDrivers(ctx)
		return err
	})
	fetch(NeedTrips, func(ctx context.Context) (err error) {
		snap.Trips, err = l.repo.ListTrips(ctx)
		return err
	})
	fetch(NeedFuel, func(ctx context.Context) (err error) {
		snap.FuelEntries, err = l.repo.ListFuelEntries(ctx)
		return err
	})
	fetch(NeedMaintenance, func(ctx context.Context) (err error) {
		snap.Maintenance, err = l.repo.ListMaintenance(ctx)
		return err
	})
	fetch(NeedScheduled, func(ctx context.Context) (err error) {
		snap.Scheduled, err = l.repo.ListScheduled(ctx)
		return err
	})
	fetch(NeedAlerts, func(ctx context.Context) (err error) {
		snap.Alerts, err = l.repo.ListAlerts(ctx)
		return err
	})

	err := g.Wait()
	snapshotDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		snapshotLoads.WithLabelValues("error").Inc()
		return nil, err
	}
	snapshotLoads.WithLabelValues("ok").Inc()

	snap.FetchedAt = l.clock.Now()
	return snap, nil
}
