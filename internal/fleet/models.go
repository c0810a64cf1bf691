package fleet

import (
	"fmt"
	"strings"
	"time"

	"github.com/richxcame/fleet-analytics/pkg/validation"
)

// Fallback labels when a reference cannot be resolved
const (
	UnknownVehicle = "Véhicule inconnu"
	UnknownDriver  = "Conducteur inconnu"
)

// Trip statuses
const (
	TripInProgress = "en cours"
	TripCompleted  = "terminé"
)

// Scheduled maintenance states and triggers
const (
	SchedulePending   = "en attente"
	ScheduleCompleted = "terminé"

	TriggerDate    = "date"
	TriggerMileage = "kilometrage"
)

// Maintenance categories
var MaintenanceCategories = []string{"Vidange", "Révision", "Freins", "Pneus", "Autre"}

// Vehicle is a fleet vehicle
type Vehicle struct {
	ID        string  `json:"_id"`
	Plate     string  `json:"immatriculation"`
	Category  string  `json:"type"`
	Brand     string  `json:"marque"`
	Model     string  `json:"modele"`
	FuelType  string  `json:"typeCarburant"`
	Odometer  float64 `json:"kilometreCompteur"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// GetID lets NormalizeID resolve a populated vehicle.
func (v Vehicle) GetID() string { return v.ID }

// Label returns "Brand Model", falling back to the plate.
func (v Vehicle) Label() string {
	if label := strings.TrimSpace(v.Brand + " " + v.Model); label != "" {
		return label
	}
	return v.Plate
}

// Driver is a console account attached to trips and fill-ups
type Driver struct {
	ID        string `json:"_id"`
	Badge     string `json:"matricule"`
	LastName  string `json:"nom"`
	FirstName string `json:"prenom"`
	Username  string `json:"nomUtilisateur"`
	Role      string `json:"role"`
	Access    string `json:"access"`
}

// GetID lets NormalizeID resolve a populated driver.
func (d Driver) GetID() string { return d.ID }

// Label returns the login name, else "First Last".
func (d Driver) Label() string {
	if d.Username != "" {
		return d.Username
	}
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Trip is one vehicle movement
type Trip struct {
	ID       string   `json:"_id"`
	Reasons  []string `json:"motif"`
	Date     string   `json:"date"`
	Time     string   `json:"heure"`
	StartKm  float64  `json:"kmDepart"`
	EndKm    *float64 `json:"kmArriver,omitempty"`
	Distance *float64 `json:"distanceParcourue,omitempty"`
	Status   string   `json:"status,omitempty"`
	Vehicle  Ref      `json:"vehicule"`
	Driver   Ref      `json:"conducteur"`
}

// DistanceKm applies the distance precedence rule: a precomputed distance
// wins, else the odometer difference, never negative.
func (t Trip) DistanceKm() float64 {
	if t.Distance != nil {
		return clampZero(*t.Distance)
	}
	if t.EndKm != nil {
		return clampZero(*t.EndKm - t.StartKm)
	}
	return 0
}

// When parses the trip date.
func (t Trip) When() (time.Time, bool) { return validation.ParseDate(t.Date) }

// VehicleID and DriverID normalize the trip's references.
func (t Trip) VehicleID() string { return NormalizeID(t.Vehicle) }
func (t Trip) DriverID() string { return NormalizeID(t.Driver) }

// InProgress reports whether the trip has not been closed yet.
func (t Trip) InProgress() bool {
	return t.Status == TripInProgress
}

// FuelEntry is one fill-up
type FuelEntry struct {
	ID        string   `json:"_id"`
	Date      string   `json:"date"`
	Liters    float64  `json:"litre"`
	TotalCost float64  `json:"coutTotal"`
	UnitPrice *float64 `json:"prixLitre,omitempty"` // legacy records only, never written
	Station   string   `json:"station"`
	Vehicle   Ref      `json:"vehicule"`
	Driver    Ref      `json:"conducteur"`
}

// Cost returns the total cost, or liters × legacy unit price when the total is absent.
func (f FuelEntry) Cost() float64 {
	if f.TotalCost > 0 {
		return f.TotalCost
	}
	if f.UnitPrice != nil {
		return f.Liters * *f.UnitPrice
	}
	return 0
}

// PricePerLiter is derived from cost and liters, 0 when liters is 0.
func (f FuelEntry) PricePerLiter() float64 {
	if f.Liters <= 0 {
		return 0
	}
	return f.Cost() / f.Liters
}

// When parses the fill-up date.
func (f FuelEntry) When() (time.Time, bool) { return validation.ParseDate(f.Date) }

func (f FuelEntry) VehicleID() string { return NormalizeID(f.Vehicle) }
func (f FuelEntry) DriverID() string { return NormalizeID(f.Driver) }

// MaintenanceEvent is a completed service action
type MaintenanceEvent struct {
	ID       string  `json:"_id"`
	Date     string  `json:"date"`
	Category string  `json:"categorie"`
	Reason   string  `json:"raison,omitempty"`
	Garage   string  `json:"garage"`
	Cost     float64 `json:"cout"`
	Odometer float64 `json:"kilometreCompteur"`
	Vehicle  Ref     `json:"vehicule"`
	Driver   Ref     `json:"conducteur"`
}

// When parses the service date.
func (m MaintenanceEvent) When() (time.Time, bool) { return validation.ParseDate(m.Date) }

func (m MaintenanceEvent) VehicleID() string { return NormalizeID(m.Vehicle) }
func (m MaintenanceEvent) DriverID() string { return NormalizeID(m.Driver) }

// ScheduledMaintenance is a date- or mileage-triggered reminder
type ScheduledMaintenance struct {
	ID               string   `json:"_id"`
	Vehicle          Ref      `json:"vehicule"`
	Category         string   `json:"categorie"`
	Trigger          string   `json:"typeCondition"`
	DueDate          string   `json:"datePrevue,omitempty"`
	MileageThreshold *float64 `json:"seuilKilometrage,omitempty"`
	Status           string   `json:"statut,omitempty"`
	CreatedAt        string   `json:"createdAt,omitempty"`
}

func (s ScheduledMaintenance) VehicleID() string { return NormalizeID(s.Vehicle) }

// Pending reports whether the reminder is still open.
func (s ScheduledMaintenance) Pending() bool {
	return s.Status != ScheduleCompleted
}

// Due parses the due date of a date-triggered reminder.
func (s ScheduledMaintenance) Due() (time.Time, bool) {
	if s.Trigger != TriggerDate {
		return time.Time{}, false
	}
	return validation.ParseDate(s.DueDate)
}

// Describe renders the trigger for listings.
func (s ScheduledMaintenance) Describe() string {
	if s.Trigger == TriggerMileage && s.MileageThreshold != nil {
		return fmt.Sprintf("%s à %.0f km", s.Category, *s.MileageThreshold)
	}
	if due, ok := s.Due(); ok {
		return fmt.Sprintf("%s le %s", s.Category, due.Format("02/01/2006"))
	}
	return s.Category
}

// Alert is a backend-raised notification about a vehicle
type Alert struct {
	ID        string `json:"_id"`
	Vehicle   Ref    `json:"vehicule"`
	Message   string `json:"message"`
	Category  string `json:"categorie"`
	Read      bool   `json:"lue"`
	CreatedAt string `json:"createdAt"`
}

// When parses the creation timestamp.
func (a Alert) When() (time.Time, bool) { return validation.ParseDate(a.CreatedAt) }

func (a Alert) VehicleID() string { return NormalizeID(a.Vehicle) }

// Snapshot is the immutable input of one computation pass.
type Snapshot struct {
	Vehicles    []Vehicle              `json:"vehicles"`
	Drivers     []Driver               `json:"drivers"`
	Trips       []Trip                 `json:"trips"`
	FuelEntries []FuelEntry            `json:"fuel_entries"`
	Maintenance []MaintenanceEvent     `json:"maintenance"`
	Scheduled   []ScheduledMaintenance `json:"scheduled"`
	Alerts      []Alert                `json:"alerts"`
	FetchedAt   time.Time              `json:"fetched_at"`
}

// VehicleByID looks a vehicle up by id.
func (s *Snapshot) VehicleByID(id string) (Vehicle, bool) {
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// DriverByID looks a driver up by id.
func (s *Snapshot) DriverByID(id string) (Driver, bool) {
	for _, d := range s.Drivers {
		if d.ID == id {
			return d, true
		}
	}
	return Driver{}, false
}

// ========================================
// WRITE REQUESTS
// ========================================

// CreateFuelEntryRequest records a fill-up. The price per liter is never sent.
type CreateFuelEntryRequest struct {
	Date      string  `json:"date" validate:"required,iso_date"`
	Liters    float64 `json:"litre" validate:"gt=0"`
	TotalCost float64 `json:"coutTotal" validate:"gt=0"`
	Station   string  `json:"station" validate:"required"`
	VehicleID string  `json:"vehicule" validate:"required"`
	DriverID  string  `json:"conducteur" validate:"required"`
}

// TripRequest creates or updates a trip
type TripRequest struct {
	Reasons   []string `json:"motif" validate:"required,min=1,dive,required"`
	Date      string   `json:"date" validate:"required,iso_date"`
	Time      string   `json:"heure" validate:"required"`
	StartKm   float64  `json:"kmDepart" validate:"gte=0"`
	EndKm     *float64 `json:"kmArriver,omitempty"`
	Status    string   `json:"status,omitempty" validate:"omitempty,trip_status"`
	VehicleID string   `json:"vehicule" validate:"required"`
	DriverID  string   `json:"conducteur" validate:"required"`
}

// tripPayload is the body sent to the backend for trip writes. Updates
// replace the stored trip, so the arrival reading and the distance are always
// sent, as null when the trip has no arrival yet.
type tripPayload struct {
	TripRequest
	EndKm    *float64 `json:"kmArriver"`
	Distance *float64 `json:"distanceParcourue"`
}

// odometerPayload bumps a vehicle's odometer.
type odometerPayload struct {
	Odometer float64 `json:"kilometreCompteur"`
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
