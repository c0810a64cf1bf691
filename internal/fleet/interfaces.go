package fleet

import "context"

// RepositoryInterface defines the reads and writes the fleet backend offers
type RepositoryInterface interface {
	// Collection reads
	ListVehicles(ctx context.Context) ([]Vehicle, error)
	ListDrivers(ctx context.Context) ([]Driver, error)
	ListTrips(ctx context.Context) ([]Trip, error)
	ListFuelEntries(ctx context.Context) ([]FuelEntry, error)
	ListMaintenance(ctx context.Context) ([]MaintenanceEvent, error)
	ListScheduled(ctx context.Context) ([]ScheduledMaintenance, error)
	ListAlerts(ctx context.Context) ([]Alert, error)

	// Single reads
	GetVehicle(ctx context.Context, id string) (*Vehicle, error)

	// Writes
	CreateFuelEntry(ctx context.Context, req *CreateFuelEntryRequest) (*FuelEntry, error)
	CreateTrip(ctx context.Context, payload *tripPayload) (*Trip, error)
	UpdateTrip(ctx context.Context, id string, payload *tripPayload) (*Trip, error)
	UpdateOdometer(ctx context.Context, vehicleID string, km float64) error
	CompleteScheduled(ctx context.Context, id string) error
	MarkAlertRead(ctx context.Context, id string) error

	// Ping checks backend reachability
	Ping(ctx context.Context) error
}
