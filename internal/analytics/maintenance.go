package analytics

import (
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/period"
)

// MaintenanceView is the maintenance screen and report for one period
type MaintenanceView struct {
	Period       period.Period     `json:"period"`
	PeriodLabel  string            `json:"period_label"`
	TotalCost    float64           `json:"total_cost"`
	Count        int               `json:"count"`
	AverageCost  float64           `json:"average_cost"`
	PreviousCost float64           `json:"previous_cost"`
	CostDelta    float64           `json:"cost_delta"`
	CostTrend    Direction         `json:"cost_trend"`
	ByCategory   []Row             `json:"by_category"`
	ByVehicle    []Row             `json:"by_vehicle"`
	Monthly      []Row             `json:"monthly"`
	Upcoming     []ScheduledItem   `json:"upcoming"`
	Overdue      []ScheduledItem   `json:"overdue"`
	Events       []MaintenanceLine `json:"events"`
}

// Maintenance computes the maintenance view for p. Scheduled items are
// classified against now.
func Maintenance(snap *fleet.Snapshot, p period.Period, now time.Time) *MaintenanceView {
	dir := NewDirectory(snap)
	events := filterMaintenance(snap.Maintenance, p)

	view := &MaintenanceView{
		Period:      p,
		PeriodLabel: p.Label(),
		Count:       len(events),
	}
	for _, m := range events {
		view.TotalCost += m.Cost
	}
	view.AverageCost = Ratio(view.TotalCost, float64(view.Count))

	for _, m := range filterMaintenance(snap.Maintenance, p.Previous()) {
		view.PreviousCost += m.Cost
	}
	view.CostDelta = PeriodDelta(view.TotalCost, view.PreviousCost)
	view.CostTrend = Trend(view.CostDelta, TrendThreshold)

	view.ByCategory = labelRows(AggregateBy(events, ByCategory, maintenanceCost), identityLabel)
	view.ByVehicle = labelRows(AggregateBy(events, ByVehicle[fleet.MaintenanceEvent], maintenanceCost), dir.Vehicle)

	view.Monthly = ByMonth(snap.Maintenance, maintenanceDate, yearOf(p), maintenanceCost)

	view.Upcoming, view.Overdue = scheduleStatus(snap, dir, now)
	view.Events = maintenanceLines(events, dir)
	return view
}
