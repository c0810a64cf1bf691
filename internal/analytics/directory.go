package analytics

import (
	"strings"

	"github.com/richxcame/fleet-analytics/internal/fleet"
)

// Labeler turns a grouping key into a display label
type Labeler func(key string) string

// Directory resolves vehicle and driver labels for a snapshot.
type Directory struct {
	vehicles map[string]fleet.Vehicle
	drivers  map[string]fleet.Driver
	embedded map[string]string
}

// NewDirectory indexes the snapshot's vehicles and drivers. Labels of
// populated references are remembered for ids the collections lack.
func NewDirectory(snap *fleet.Snapshot) *Directory {
	d := &Directory{
		vehicles: make(map[string]fleet.Vehicle),
		drivers:  make(map[string]fleet.Driver),
		embedded: make(map[string]string),
	}
	if snap == nil {
		return d
	}
	for _, v := range snap.Vehicles {
		d.vehicles[v.ID] = v
	}
	for _, dr := range snap.Drivers {
		d.drivers[dr.ID] = dr
	}
	for _, t := range snap.Trips {
		d.remember(t.Vehicle, vehicleRefLabel)
		d.remember(t.Driver, driverRefLabel)
	}
	for _, f := range snap.FuelEntries {
		d.remember(f.Vehicle, vehicleRefLabel)
		d.remember(f.Driver, driverRefLabel)
	}
	for _, m := range snap.Maintenance {
		d.remember(m.Vehicle, vehicleRefLabel)
	}
	return d
}

// Vehicle returns the vehicle label for id, or the unknown-vehicle fallback.
func (d *Directory) Vehicle(id string) string {
	if v, ok := d.vehicles[id]; ok {
		if label := v.Label(); label != "" {
			return label
		}
	}
	if label, ok := d.embedded[id]; ok {
		return label
	}
	return fleet.UnknownVehicle
}

// Driver returns the driver label for id, or the unknown-driver fallback.
func (d *Directory) Driver(id string) string {
	if dr, ok := d.drivers[id]; ok {
		if label := dr.Label(); label != "" {
			return label
		}
	}
	if label, ok := d.embedded[id]; ok {
		return label
	}
	return fleet.UnknownDriver
}

// VehicleType returns the vehicle's category, "" when unknown.
func (d *Directory) VehicleType(id string) string {
	return strings.TrimSpace(d.vehicles[id].Category)
}

// FuelType returns the vehicle's fuel type, "" when unknown.
func (d *Directory) FuelType(id string) string {
	return strings.TrimSpace(d.vehicles[id].FuelType)
}

func (d *Directory) remember(ref fleet.Ref, labelOf func(fleet.Ref) string) {
	if !ref.Populated() || ref.ID == "" {
		return
	}
	if _, ok := d.embedded[ref.ID]; ok {
		return
	}
	if label := labelOf(ref); label != "" {
		d.embedded[ref.ID] = label
	}
}

func vehicleRefLabel(ref fleet.Ref) string {
	v := fleet.Vehicle{
		Brand: ref.Field("marque"),
		Model: ref.Field("modele"),
		Plate: ref.Field("immatriculation"),
	}
	return v.Label()
}

func driverRefLabel(ref fleet.Ref) string {
	d := fleet.Driver{
		Username:  ref.Field("nomUtilisateur"),
		FirstName: ref.Field("prenom"),
		LastName:  ref.Field("nom"),
	}
	return d.Label()
}
