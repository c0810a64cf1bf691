package analytics

import (
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/period"
)

// FuelView is the fuel screen and report for one period.
// Rows carry two sums: cost then liters.
type FuelView struct {
	Period               period.Period `json:"period"`
	PeriodLabel          string        `json:"period_label"`
	TotalCost            float64       `json:"total_cost"`
	TotalLiters          float64       `json:"total_liters"`
	FillUps              int           `json:"fill_ups"`
	AverageLiters        float64       `json:"average_liters"`
	AveragePricePerLiter float64       `json:"average_price_per_liter"`
	AverageGapDays       float64       `json:"average_gap_days"`
	PreviousCost         float64       `json:"previous_cost"`
	CostDelta            float64       `json:"cost_delta"`
	CostTrend            Direction     `json:"cost_trend"`
	ByVehicle            []Row         `json:"by_vehicle"`
	ByDriver             []Row         `json:"by_driver"`
	ByFuelType           []Row         `json:"by_fuel_type"`
	Monthly              []Row         `json:"monthly"`
	Entries              []FuelLine    `json:"entries"`
}

// Fuel computes the fuel view for p.
func Fuel(snap *fleet.Snapshot, p period.Period) *FuelView {
	dir := NewDirectory(snap)
	entries := filterFuel(snap.FuelEntries, p)

	view := &FuelView{
		Period:      p,
		PeriodLabel: p.Label(),
		FillUps:     len(entries),
	}

	dates := make([]time.Time, 0, len(entries))
	for _, f := range entries {
		view.TotalCost += f.Cost()
		view.TotalLiters += f.Liters
		if t, ok := f.When(); ok {
			dates = append(dates, t)
		}
	}
	view.AverageLiters = Ratio(view.TotalLiters, float64(view.FillUps))
	view.AveragePricePerLiter = Ratio(view.TotalCost, view.TotalLiters)
	view.AverageGapDays = AverageGapDays(dates)

	for _, f := range filterFuel(snap.FuelEntries, p.Previous()) {
		view.PreviousCost += f.Cost()
	}
	view.CostDelta = PeriodDelta(view.TotalCost, view.PreviousCost)
	view.CostTrend = Trend(view.CostDelta, TrendThreshold)

	view.ByVehicle = labelRows(AggregateBy(entries, ByVehicle[fleet.FuelEntry], fuelCost, fuelLiters), dir.Vehicle)
	view.ByDriver = labelRows(AggregateBy(entries, ByDriver[fleet.FuelEntry], fuelCost, fuelLiters), dir.Driver)
	view.ByFuelType = labelRows(AggregateBy(entries, func(f fleet.FuelEntry) string {
		return dir.FuelType(f.VehicleID())
	}, fuelCost, fuelLiters), identityLabel)

	view.Monthly = ByMonth(snap.FuelEntries, fuelDate, yearOf(p), fuelCost, fuelLiters)

	view.Entries = fuelLines(entries, dir)
	return view
}
