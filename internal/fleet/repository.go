package fleet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/config"
	"github.com/richxcame/fleet-analytics/pkg/httpclient"
	"github.com/richxcame/fleet-analytics/pkg/resilience"
	"github.com/richxcame/fleet-analytics/pkg/tracing"
)

const tracerName = "fleet-analytics/fleet"

// Backend collections
const (
	CollectionVehicles    = "vehicules"
	CollectionDrivers     = "conducteurs"
	CollectionTrips       = "trajets"
	CollectionFuel        = "carburants"
	CollectionMaintenance = "entretiens"
	CollectionScheduled   = "entretienProgrammes"
	CollectionAlerts      = "alertes"
)

// Collections lists every collection the service reads.
var Collections = []string{
	CollectionVehicles,
	CollectionDrivers,
	CollectionTrips,
	CollectionFuel,
	CollectionMaintenance,
	CollectionScheduled,
	CollectionAlerts,
}

// Repository reads and writes fleet records through the backend REST API
type Repository struct {
	client   *httpclient.Client
	breakers map[string]*resilience.CircuitBreaker
}

// NewRepository creates a repository with one circuit breaker per collection.
// Breakers are skipped when disabled in configuration.
func NewRepository(client *httpclient.Client, cbCfg config.CircuitBreakerConfig) *Repository {
	r := &Repository{
		client:   client,
		breakers: make(map[string]*resilience.CircuitBreaker, len(Collections)),
	}
	if !cbCfg.Enabled {
		return r
	}
	for _, collection := range Collections {
		r.breakers[collection] = resilience.NewCircuitBreaker(
			resilience.SettingsFromConfig(collection, cbCfg), nil,
		)
	}
	return r
}

// ========================================
// READS
// ========================================

// ListVehicles returns every vehicle
func (r *Repository) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	return list[Vehicle](ctx, r, CollectionVehicles)
}

// ListDrivers returns every driver
func (r *Repository) ListDrivers(ctx context.Context) ([]Driver, error) {
	return list[Driver](ctx, r, CollectionDrivers)
}

// ListTrips returns every trip
func (r *Repository) ListTrips(ctx context.Context) ([]Trip, error) {
	return list[Trip](ctx, r, CollectionTrips)
}

// ListFuelEntries returns every fill-up
func (r *Repository) ListFuelEntries(ctx context.Context) ([]FuelEntry, error) {
	return list[FuelEntry](ctx, r, CollectionFuel)
}

// ListMaintenance returns every completed maintenance event
func (r *Repository) ListMaintenance(ctx context.Context) ([]MaintenanceEvent, error) {
	return list[MaintenanceEvent](ctx, r, CollectionMaintenance)
}

// ListScheduled returns every scheduled maintenance reminder
func (r *Repository) ListScheduled(ctx context.Context) ([]ScheduledMaintenance, error) {
	return list[ScheduledMaintenance](ctx, r, CollectionScheduled)
}

// ListAlerts returns every alert
func (r *Repository) ListAlerts(ctx context.Context) ([]Alert, error) {
	return list[Alert](ctx, r, CollectionAlerts)
}

// GetVehicle fetches one vehicle by id
func (r *Repository) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	body, err := r.call(ctx, CollectionVehicles, http.MethodGet, itemPath(CollectionVehicles, id), nil)
	if err != nil {
		return nil, err
	}
	v := &Vehicle{}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, fmt.Errorf("decode vehicle %s: %w", id, err)
	}
	return v, nil
}

// Ping lists vehicles to check that the backend answers.
func (r *Repository) Ping(ctx context.Context) error {
	_, err := r.client.Get(ctx, "/"+CollectionVehicles, nil)
	return err
}

// ========================================
// WRITES
// ========================================

// CreateFuelEntry records a fill-up
func (r *Repository) CreateFuelEntry(ctx context.Context, req *CreateFuelEntryRequest) (*FuelEntry, error) {
	body, err := r.call(ctx, CollectionFuel, http.MethodPost, "/"+CollectionFuel, req)
	if err != nil {
		return nil, err
	}
	entry := &FuelEntry{}
	if err := json.Unmarshal(body, entry); err != nil {
		return nil, fmt.Errorf("decode fuel entry: %w", err)
	}
	return entry, nil
}

// CreateTrip records a trip
func (r *Repository) CreateTrip(ctx context.Context, payload *tripPayload) (*Trip, error) {
	body, err := r.call(ctx, CollectionTrips, http.MethodPost, "/"+CollectionTrips, payload)
	if err != nil {
		return nil, err
	}
	return decodeTrip(body)
}

// UpdateTrip replaces a trip
func (r *Repository) UpdateTrip(ctx context.Context, id string, payload *tripPayload) (*Trip, error) {
	body, err := r.call(ctx, CollectionTrips, http.MethodPut, itemPath(CollectionTrips, id), payload)
	if err != nil {
		return nil, err
	}
	return decodeTrip(body)
}

// UpdateOdometer raises a vehicle's odometer reading
func (r *Repository) UpdateOdometer(ctx context.Context, vehicleID string, km float64) error {
	_, err := r.call(ctx, CollectionVehicles, http.MethodPut, itemPath(CollectionVehicles, vehicleID), odometerPayload{Odometer: km})
	return err
}

// CompleteScheduled marks a scheduled maintenance as done
func (r *Repository) CompleteScheduled(ctx context.Context, id string) error {
	_, err := r.call(ctx, CollectionScheduled, http.MethodPatch, itemPath(CollectionScheduled, id)+"/termine", struct{}{})
	return err
}

// MarkAlertRead acknowledges an alert
func (r *Repository) MarkAlertRead(ctx context.Context, id string) error {
	_, err := r.call(ctx, CollectionAlerts, http.MethodPatch, itemPath(CollectionAlerts, id)+"/lue", struct{}{})
	return err
}

// ========================================
// HELPERS
// ========================================

func list[T any](ctx context.Context, r *Repository, collection string) ([]T, error) {
	var items []T
	err := tracing.TraceBackendFetch(ctx, tracerName, collection, func(ctx context.Context) (int, error) {
		body, err := r.call(ctx, collection, http.MethodGet, "/"+collection, nil)
		if err != nil {
			return 0, err
		}
		if err := json.Unmarshal(body, &items); err != nil {
			return 0, fmt.Errorf("decode %s: %w", collection, err)
		}
		return len(items), nil
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// call runs one backend request through the collection's breaker and maps failures.
func (r *Repository) call(ctx context.Context, collection, method, path string, body interface{}) ([]byte, error) {
	result, err := r.breakers[collection].Execute(ctx, func(ctx context.Context) (interface{}, error) {
		switch method {
		case http.MethodGet:
			return r.client.Get(ctx, path, nil)
		case http.MethodPost:
			return r.client.Post(ctx, path, body, nil)
		case http.MethodPut:
			return r.client.Put(ctx, path, body, nil)
		case http.MethodPatch:
			return r.client.Patch(ctx, path, body, nil)
		default:
			return nil, fmt.Errorf("unsupported method %s", method)
		}
	})
	if err != nil {
		return nil, mapBackendError(collection, err)
	}
	return result.([]byte), nil
}

func mapBackendError(collection string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch code := httpclient.StatusCode(err); {
	case code == http.StatusNotFound:
		return fmt.Errorf("%s: %w", collection, common.ErrNotFound)
	case code >= 400 && code < 500:
		return common.NewBadRequestError(fmt.Sprintf("backend rejected %s request", collection), err)
	}
	return fmt.Errorf("%s: %w: %w", collection, common.ErrUpstream, err)
}

func itemPath(collection, id string) string {
	return "/" + collection + "/" + url.PathEscape(id)
}

func decodeTrip(body []byte) (*Trip, error) {
	trip := &Trip{}
	if err := json.Unmarshal(body, trip); err != nil {
		return nil, fmt.Errorf("decode trip: %w", err)
	}
	return trip, nil
}
