package analytics

import (
	"math"
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/period"
)

// Cost breakdown labels
const (
	ShareFuel        = "Carburant"
	ShareMaintenance = "Entretien"
)

// DailyWindow is the number of days on the dashboard distance line.
const DailyWindow = 7

var weekdayShort = [...]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."}

// DashboardView is the home screen summary
type DashboardView struct {
	Period             period.Period    `json:"period"`
	PeriodLabel        string           `json:"period_label"`
	VehicleCount       int              `json:"vehicle_count"`
	DriverCount        int              `json:"driver_count"`
	TripCount          int              `json:"trip_count"`
	MonthlyFuel        float64          `json:"monthly_fuel"`
	MonthlyMaintenance float64          `json:"monthly_maintenance"`
	MonthlySpend       float64          `json:"monthly_spend"`
	CostBreakdown      []Share          `json:"cost_breakdown"`
	DailyDistance      []DayPoint       `json:"daily_distance"`
	TopVehicles        []Row            `json:"top_vehicles"`
	TopDrivers         []Row            `json:"top_drivers"`
	UnreadAlerts       int              `json:"unread_alerts"`
	NextMaintenance    *ScheduledItem   `json:"next_maintenance,omitempty"`
	Overdue            []ScheduledItem  `json:"overdue"`
	LastTrip           *TripLine        `json:"last_trip"`
	LastFuel           *FuelLine        `json:"last_fuel"`
	LastMaintenance    *MaintenanceLine `json:"last_maintenance"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

// Dashboard summarises the current month around now.
func Dashboard(snap *fleet.Snapshot, now time.Time) *DashboardView {
	dir := NewDirectory(snap)
	month := period.Month(now)

	fuel := filterFuel(snap.FuelEntries, month)
	maintenance := filterMaintenance(snap.Maintenance, month)
	trips := filterTrips(snap.Trips, month)

	var fuelTotal, maintenanceTotal float64
	for _, f := range fuel {
		fuelTotal += f.Cost()
	}
	for _, m := range maintenance {
		maintenanceTotal += m.Cost
	}

	view := &DashboardView{
		Period:             month,
		PeriodLabel:        month.Label(),
		VehicleCount:       len(snap.Vehicles),
		DriverCount:        len(snap.Drivers),
		TripCount:          len(snap.Trips),
		MonthlyFuel:        fuelTotal,
		MonthlyMaintenance: maintenanceTotal,
		MonthlySpend:       fuelTotal + maintenanceTotal,
		CostBreakdown:      shares([]string{ShareFuel, ShareMaintenance}, []float64{fuelTotal, maintenanceTotal}),
		DailyDistance:      dailyDistance(snap.Trips, now),
		TopVehicles:        TopN(AggregateBy(trips, ByVehicle[fleet.Trip], tripDistance), TopLimit, dir.Vehicle),
		TopDrivers:         TopN(AggregateBy(trips, ByDriver[fleet.Trip]), TopLimit, dir.Driver),
		GeneratedAt:        now,
	}

	for _, a := range snap.Alerts {
		if !a.Read {
			view.UnreadAlerts++
		}
	}

	upcoming, overdue := scheduleStatus(snap, dir, now)
	if len(upcoming) > 0 {
		next := upcoming[0]
		view.NextMaintenance = &next
	}
	view.Overdue = overdue

	if t, ok := newest(snap.Trips, fleet.Trip.When); ok {
		line := tripLine(t, dir)
		view.LastTrip = &line
	}
	if f, ok := newest(snap.FuelEntries, fleet.FuelEntry.When); ok {
		line := fuelLines([]fleet.FuelEntry{f}, dir)[0]
		view.LastFuel = &line
	}
	if m, ok := newest(snap.Maintenance, fleet.MaintenanceEvent.When); ok {
		line := maintenanceLines([]fleet.MaintenanceEvent{m}, dir)[0]
		view.LastMaintenance = &line
	}
	return view
}

// newest returns the record with the latest date. Undated records are
// ignored; on equal dates the first one listed wins.
func newest[T any](records []T, dateOf func(T) (time.Time, bool)) (T, bool) {
	var (
		best   T
		bestAt time.Time
		found  bool
	)
	for _, r := range records {
		at, ok := dateOf(r)
		if !ok {
			continue
		}
		if !found || at.After(bestAt) {
			best, bestAt, found = r, at, true
		}
	}
	return best, found
}

// dailyDistance sums trip distance for each of the last DailyWindow days,
// oldest first, today last.
func dailyDistance(trips []fleet.Trip, now time.Time) []DayPoint {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	points := make([]DayPoint, DailyWindow)
	for i := range points {
		day := today.AddDate(0, 0, i-(DailyWindow-1))
		points[i] = DayPoint{Date: day.Format("2006-01-02"), Label: weekdayShort[day.Weekday()]}
	}

	for _, t := range trips {
		when, ok := t.When()
		if !ok {
			continue
		}
		when = when.In(now.Location())
		day := time.Date(when.Year(), when.Month(), when.Day(), 0, 0, 0, 0, now.Location())
		diff := int(math.Round(today.Sub(day).Hours() / 24))
		if diff < 0 || diff >= DailyWindow {
			continue
		}
		points[DailyWindow-1-diff].Km += t.DistanceKm()
	}
	return points
}
