package analytics

import (
	"sort"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/period"
)

// FuelTypeSeries is the monthly fuel cost of one fuel type
type FuelTypeSeries struct {
	FuelType string `json:"fuel_type"`
	Monthly  []Row  `json:"monthly"`
}

// CategorySeries is the monthly fuel volume of one vehicle category
type CategorySeries struct {
	Category string `json:"category"`
	Monthly  []Row  `json:"monthly"`
}

// OwnershipCost is the total cost of ownership of one vehicle over the period
type OwnershipCost struct {
	VehicleID   string  `json:"vehicle_id"`
	Label       string  `json:"label"`
	Fuel        float64 `json:"fuel"`
	Maintenance float64 `json:"maintenance"`
	Total       float64 `json:"total"`
}

// FleetView is the fleet statistics screen and the fleet report
type FleetView struct {
	Period             period.Period    `json:"period"`
	PeriodLabel        string           `json:"period_label"`
	VehicleCount       int              `json:"vehicle_count"`
	DriverCount        int              `json:"driver_count"`
	VehicleTypes       []Row            `json:"vehicle_types"`
	FuelByType         []FuelTypeSeries `json:"fuel_by_type"`
	LitersByCategory   []CategorySeries `json:"liters_by_category"`
	MaintenanceRanking []Row            `json:"maintenance_ranking"`
	ActivityRanking    []Row            `json:"activity_ranking"`
	Ownership          []OwnershipCost  `json:"ownership"`
	MostUsedVehicle    string           `json:"most_used_vehicle"`
	HighestMaintenance string           `json:"highest_maintenance"`
	FuelCost           float64          `json:"fuel_cost"`
	MaintenanceCost    float64          `json:"maintenance_cost"`
	TotalCost          float64          `json:"total_cost"`
	TotalKm            float64          `json:"total_km"`
}

// Fleet computes fleet-wide statistics for p. Monthly fuel series cover
// the calendar year of p.
func Fleet(snap *fleet.Snapshot, p period.Period) *FleetView {
	dir := NewDirectory(snap)
	trips := filterTrips(snap.Trips, p)
	fuel := filterFuel(snap.FuelEntries, p)
	maintenance := filterMaintenance(snap.Maintenance, p)

	view := &FleetView{
		Period:       p,
		PeriodLabel:  p.Label(),
		VehicleCount: len(snap.Vehicles),
		DriverCount:  len(snap.Drivers),
		TotalKm:      distance(trips),
	}

	view.VehicleTypes = labelRows(AggregateBy(snap.Vehicles, func(v fleet.Vehicle) string {
		return v.Category
	}), identityLabel)

	view.FuelByType = fuelByType(snap, dir, yearOf(p))
	view.LitersByCategory = litersByCategory(snap, dir, yearOf(p))

	view.MaintenanceRanking = labelRows(AggregateBy(maintenance, ByVehicle[fleet.MaintenanceEvent], maintenanceCost), dir.Vehicle)
	view.ActivityRanking = labelRows(AggregateBy(trips, ByVehicle[fleet.Trip]), dir.Vehicle)

	view.Ownership = ownership(fuel, maintenance, dir)
	for _, f := range fuel {
		view.FuelCost += f.Cost()
	}
	for _, m := range maintenance {
		view.MaintenanceCost += m.Cost
	}
	view.TotalCost = view.FuelCost + view.MaintenanceCost

	view.MostUsedVehicle = NoneLabel
	if len(view.ActivityRanking) > 0 {
		view.MostUsedVehicle = view.ActivityRanking[0].Label
	}
	view.HighestMaintenance = NoneLabel
	if len(view.MaintenanceRanking) > 0 {
		view.HighestMaintenance = view.MaintenanceRanking[0].Label
	}
	return view
}

// fuelByType splits the year's fuel cost by the fuel type of each entry's
// vehicle. Entries of unknown vehicles are left out.
func fuelByType(snap *fleet.Snapshot, dir *Directory, year int) []FuelTypeSeries {
	order, grouped := fuelMonthly(snap.FuelEntries, func(f fleet.FuelEntry) string {
		return dir.FuelType(f.VehicleID())
	}, year, fuelCost)

	series := make([]FuelTypeSeries, 0, len(order))
	for _, ft := range order {
		series = append(series, FuelTypeSeries{FuelType: ft, Monthly: grouped[ft]})
	}
	return series
}

// litersByCategory splits the year's fuel volume by vehicle category, the
// stacked "L/mois" chart of the statistics page.
func litersByCategory(snap *fleet.Snapshot, dir *Directory, year int) []CategorySeries {
	order, grouped := fuelMonthly(snap.FuelEntries, func(f fleet.FuelEntry) string {
		return dir.VehicleType(f.VehicleID())
	}, year, fuelLiters)

	series := make([]CategorySeries, 0, len(order))
	for _, c := range order {
		series = append(series, CategorySeries{Category: c, Monthly: grouped[c]})
	}
	return series
}

// fuelMonthly groups entries by key, in order of first appearance, and
// buckets each group by month of year. Entries with an empty key are skipped.
func fuelMonthly(entries []fleet.FuelEntry, keyOf func(fleet.FuelEntry) string, year int, metric Metric[fleet.FuelEntry]) ([]string, map[string][]Row) {
	grouped := make(map[string][]fleet.FuelEntry)
	var order []string
	for _, f := range entries {
		key := keyOf(f)
		if key == "" {
			continue
		}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], f)
	}

	monthly := make(map[string][]Row, len(order))
	for _, key := range order {
		monthly[key] = ByMonth(grouped[key], fuelDate, year, metric)
	}
	return order, monthly
}

// ownership joins fuel and maintenance totals per vehicle, highest total first.
// Records without a vehicle are not attributed to anyone.
func ownership(fuel []fleet.FuelEntry, maintenance []fleet.MaintenanceEvent, dir *Directory) []OwnershipCost {
	index := make(map[string]int)
	out := make([]OwnershipCost, 0)
	entry := func(id string) *OwnershipCost {
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, OwnershipCost{VehicleID: id, Label: dir.Vehicle(id)})
		}
		return &out[i]
	}

	for _, row := range AggregateBy(fuel, ByVehicle[fleet.FuelEntry], fuelCost) {
		entry(row.Key).Fuel = row.Sum(0)
	}
	for _, row := range AggregateBy(maintenance, ByVehicle[fleet.MaintenanceEvent], maintenanceCost) {
		entry(row.Key).Maintenance = row.Sum(0)
	}
	for i := range out {
		out[i].Total = out[i].Fuel + out[i].Maintenance
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}
