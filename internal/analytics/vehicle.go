package analytics

import (
	"fmt"
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/period"
	"github.com/richxcame/fleet-analytics/pkg/common"
)

// VehicleDetailView is the per-vehicle screen. Distances are measured
// against now; costs, consumption and ratios against the requested period.
type VehicleDetailView struct {
	Vehicle     fleet.Vehicle `json:"vehicle"`
	Label       string        `json:"label"`
	Period      period.Period `json:"period"`
	PeriodLabel string        `json:"period_label"`

	KmToday         float64   `json:"km_today"`
	KmYesterday     float64   `json:"km_yesterday"`
	KmMonth         float64   `json:"km_month"`
	KmPreviousMonth float64   `json:"km_previous_month"`
	KmYear          float64   `json:"km_year"`
	KmTotal         float64   `json:"km_total"`
	DailyDelta      float64   `json:"daily_delta"`
	DailyTrend      Direction `json:"daily_trend"`
	MonthlyDelta    float64   `json:"monthly_delta"`
	MonthlyTrend    Direction `json:"monthly_trend"`

	MonthlyAverage float64 `json:"monthly_average"`
	MonthlyGap     float64 `json:"monthly_gap"`
	MonthlyGapPct  float64 `json:"monthly_gap_pct"`

	TripCount       int     `json:"trip_count"`
	KmPerTrip       float64 `json:"km_per_trip"`
	FleetKmPerTrip  float64 `json:"fleet_km_per_trip"`
	Efficiency      Level   `json:"efficiency"`
	DailyEfficiency float64 `json:"daily_efficiency"`

	FuelCost        float64 `json:"fuel_cost"`
	MaintenanceCost float64 `json:"maintenance_cost"`
	TotalCost       float64 `json:"total_cost"`
	PeriodKm        float64 `json:"period_km"`
	PeriodTrips     int     `json:"period_trips"`
	CostPerKm       float64 `json:"cost_per_km"`
	CostPerTrip     float64 `json:"cost_per_trip"`
	Liters          float64 `json:"liters"`
	KmPerLiter      float64 `json:"km_per_liter"`
	CostBreakdown   []Share `json:"cost_breakdown"`

	Drivers         []Row            `json:"drivers"`
	Monthly         []Row            `json:"monthly"`
	LastMaintenance *MaintenanceLine `json:"last_maintenance,omitempty"`
	LastFillUp      *FuelLine        `json:"last_fill_up,omitempty"`
}

// VehicleDetail computes the detail view of one vehicle.
func VehicleDetail(snap *fleet.Snapshot, vehicleID string, p period.Period, now time.Time) (*VehicleDetailView, error) {
	vehicle, ok := snap.VehicleByID(vehicleID)
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, common.ErrNotFound)
	}
	dir := NewDirectory(snap)

	trips := onlyVehicle(snap.Trips, vehicleID)
	fuel := onlyVehicle(snap.FuelEntries, vehicleID)
	maintenance := onlyVehicle(snap.Maintenance, vehicleID)

	view := &VehicleDetailView{
		Vehicle:         vehicle,
		Label:           dir.Vehicle(vehicleID),
		Period:          p,
		PeriodLabel:     p.Label(),
		KmToday:         distance(filterTrips(trips, period.Day(now))),
		KmYesterday:     distance(filterTrips(trips, period.Day(now.AddDate(0, 0, -1)))),
		KmMonth:         distance(filterTrips(trips, period.Month(now))),
		KmPreviousMonth: distance(filterTrips(trips, period.Month(now).Previous())),
		KmYear:          distance(filterTrips(trips, period.Year(now))),
		KmTotal:         distance(trips),
		TripCount:       len(trips),
	}

	view.DailyDelta = PeriodDelta(view.KmToday, view.KmYesterday)
	view.DailyTrend = Trend(view.DailyDelta, TrendThreshold)
	view.MonthlyDelta = PeriodDelta(view.KmMonth, view.KmPreviousMonth)
	view.MonthlyTrend = Trend(view.MonthlyDelta, TrendThreshold)

	view.MonthlyAverage = MonthlyAverage(view.KmYear, now)
	view.MonthlyGap = view.KmMonth - view.MonthlyAverage
	view.MonthlyGapPct = Ratio(view.MonthlyGap, view.MonthlyAverage) * 100

	view.KmPerTrip = Ratio(view.KmTotal, float64(view.TripCount))
	view.FleetKmPerTrip = Ratio(distance(snap.Trips), float64(len(snap.Trips)))
	view.Efficiency = Band(view.KmPerTrip, view.FleetKmPerTrip, EfficiencyThreshold)
	view.DailyEfficiency = Ratio(view.KmMonth, float64(now.Day()))

	periodFuel := filterFuel(fuel, p)
	for _, f := range periodFuel {
		view.FuelCost += f.Cost()
		view.Liters += f.Liters
	}
	for _, m := range filterMaintenance(maintenance, p) {
		view.MaintenanceCost += m.Cost
	}
	periodTrips := filterTrips(trips, p)
	view.TotalCost = view.FuelCost + view.MaintenanceCost
	view.PeriodKm = distance(periodTrips)
	view.PeriodTrips = len(periodTrips)
	view.CostPerKm = Ratio(view.TotalCost, view.PeriodKm)
	view.CostPerTrip = Ratio(view.TotalCost, float64(view.PeriodTrips))
	view.KmPerLiter = Ratio(view.PeriodKm, view.Liters)
	view.CostBreakdown = shares([]string{ShareFuel, ShareMaintenance}, []float64{view.FuelCost, view.MaintenanceCost})

	view.Drivers = labelRows(AggregateBy(trips, ByDriver[fleet.Trip], tripDistance), dir.Driver)
	view.Monthly = ByMonth(trips, tripDate, now.Year(), tripDistance)

	if lines := maintenanceLines(maintenance, dir); len(lines) > 0 {
		view.LastMaintenance = &lines[0]
	}
	if lines := fuelLines(fuel, dir); len(lines) > 0 {
		view.LastFillUp = &lines[0]
	}
	return view, nil
}

func onlyVehicle[T vehicleScoped](records []T, vehicleID string) []T {
	out := make([]T, 0)
	for _, r := range records {
		if r.VehicleID() == vehicleID {
			out = append(out, r)
		}
	}
	return out
}

func onlyDriver[T driverScoped](records []T, driverID string) []T {
	out := make([]T, 0)
	for _, r := range records {
		if r.DriverID() == driverID {
			out = append(out, r)
		}
	}
	return out
}

func distance(trips []fleet.Trip) float64 {
	var km float64
	for _, t := range trips {
		km += t.DistanceKm()
	}
	return km
}
