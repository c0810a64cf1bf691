package analytics

import (
	"fmt"
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/pkg/common"
)

// DriverDetailView is the per-driver history
type DriverDetailView struct {
	Driver      fleet.Driver `json:"driver"`
	Label       string       `json:"label"`
	Trips       int          `json:"trips"`
	KmTotal     float64      `json:"km_total"`
	FillUps     int          `json:"fill_ups"`
	FuelCost    float64      `json:"fuel_cost"`
	Liters      float64      `json:"liters"`
	Maintenance int          `json:"maintenance"`
	Vehicles    []Row        `json:"vehicles"`
	Monthly     []Row        `json:"monthly"`
	LastTrip    *TripLine    `json:"last_trip,omitempty"`
	History     []TripLine   `json:"history"`
}

// DriverDetail computes the history of one driver. Monthly distance covers
// the calendar year of now.
func DriverDetail(snap *fleet.Snapshot, driverID string, now time.Time) (*DriverDetailView, error) {
	driver, ok := snap.DriverByID(driverID)
	if !ok {
		return nil, fmt.Errorf("driver %s: %w", driverID, common.ErrNotFound)
	}
	dir := NewDirectory(snap)

	trips := onlyDriver(snap.Trips, driverID)
	fuel := onlyDriver(snap.FuelEntries, driverID)

	view := &DriverDetailView{
		Driver:      driver,
		Label:       dir.Driver(driverID),
		Trips:       len(trips),
		KmTotal:     distance(trips),
		FillUps:     len(fuel),
		Maintenance: len(onlyDriver(snap.Maintenance, driverID)),
		Vehicles:    labelRows(AggregateBy(trips, ByVehicle[fleet.Trip], tripDistance), dir.Vehicle),
		Monthly:     ByMonth(trips, tripDate, now.Year(), tripDistance),
	}
	for _, f := range fuel {
		view.FuelCost += f.Cost()
		view.Liters += f.Liters
	}

	sortTrips(trips, SortDateDesc)
	view.History = make([]TripLine, 0, len(trips))
	for _, t := range trips {
		view.History = append(view.History, tripLine(t, dir))
	}
	if len(view.History) > 0 {
		last := view.History[0]
		view.LastTrip = &last
	}
	return view, nil
}
