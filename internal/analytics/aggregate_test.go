package analytics

import (
	"testing"
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// AggregateBy
// ========================================

func TestAggregateBy_SingleVehicleFuel(t *testing.T) {
	entries := []fleet.FuelEntry{
		{ID: "f1", Date: "2024-04-05", Liters: 40, TotalCost: 200000, Vehicle: fleet.NewRef("v1")},
		{ID: "f2", Date: "2024-04-12", Liters: 35, TotalCost: 180000, Vehicle: fleet.NewRef("v1")},
	}

	rows := AggregateBy(entries, ByVehicle[fleet.FuelEntry], fuelCost, fuelLiters)

	require.Len(t, rows, 1)
	assert.Equal(t, "v1", rows[0].Key)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, 380000.0, rows[0].Sum(0))
	assert.Equal(t, 37.5, rows[0].Average(1))
	assert.Equal(t, 100.0, rows[0].PercentageOfTotal)
}

func TestAggregateBy_MixedReferenceShapesShareAGroup(t *testing.T) {
	trips := []fleet.Trip{
		{ID: "t1", Distance: ptr(10), Vehicle: fleet.NewRef("v1")},
		{ID: "t2", Distance: ptr(15), Vehicle: fleet.Ref{ID: "v1", Object: map[string]any{"_id": "v1", "marque": "Toyota"}}},
	}

	rows := AggregateBy(trips, ByVehicle[fleet.Trip], tripDistance)

	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, 25.0, rows[0].Sum(0))
}

func TestAggregateBy_DropsEmptyKeys(t *testing.T) {
	trips := []fleet.Trip{
		{ID: "t1", Distance: ptr(10), Vehicle: fleet.NewRef("v1")},
		{ID: "t2", Distance: ptr(99)},
		{ID: "t3", Distance: ptr(5), Vehicle: fleet.NewRef("  ")},
	}

	rows := AggregateBy(trips, ByVehicle[fleet.Trip], tripDistance)

	require.Len(t, rows, 1)
	assert.Equal(t, "v1", rows[0].Key)
	assert.Equal(t, 100.0, rows[0].PercentageOfTotal)
}

func TestAggregateBy_SortsDescendingAndKeepsTieOrder(t *testing.T) {
	type rec struct {
		key string
		v   float64
	}
	records := []rec{{"a", 5}, {"b", 20}, {"c", 5}, {"d", 1}, {"b", 0}}
	value := Sum("v", func(r rec) float64 { return r.v })

	rows := AggregateBy(records, func(r rec) string { return r.key }, value)

	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, keys)
}

func TestAggregateBy_CountIsPrimaryWithoutMetrics(t *testing.T) {
	records := []string{"x", "y", "y", "y", "x", "z"}

	rows := AggregateBy(records, func(s string) string { return s })

	require.Len(t, rows, 3)
	assert.Equal(t, "y", rows[0].Key)
	assert.Equal(t, 3.0, rows[0].Primary())
	assert.Equal(t, 50.0, rows[0].PercentageOfTotal)
	assert.Equal(t, 33.0, rows[1].PercentageOfTotal)
	assert.Equal(t, 17.0, rows[2].PercentageOfTotal)
	assert.Empty(t, rows[0].Sums)
}

func TestAggregateBy_ZeroTotalGivesZeroPercentages(t *testing.T) {
	trips := []fleet.Trip{
		{ID: "t1", StartKm: 100, Vehicle: fleet.NewRef("v1")},
		{ID: "t2", StartKm: 200, Vehicle: fleet.NewRef("v2")},
	}

	rows := AggregateBy(trips, ByVehicle[fleet.Trip], tripDistance)

	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, 0.0, r.PercentageOfTotal)
	}
}

func TestAggregateBy_ConservesTotals(t *testing.T) {
	snap := fixtureSnapshot()
	entries := snap.FuelEntries

	rows := AggregateBy(entries, ByVehicle[fleet.FuelEntry], fuelCost, fuelLiters)

	var wantCost, wantLiters, gotCost, gotLiters float64
	for _, f := range entries {
		wantCost += f.Cost()
		wantLiters += f.Liters
	}
	var pct float64
	for _, r := range rows {
		gotCost += r.Sum(0)
		gotLiters += r.Sum(1)
		pct += r.PercentageOfTotal
		assert.GreaterOrEqual(t, r.PercentageOfTotal, 0.0)
		assert.LessOrEqual(t, r.PercentageOfTotal, 100.0)
	}
	assert.Equal(t, wantCost, gotCost)
	assert.Equal(t, wantLiters, gotLiters)
	assert.InDelta(t, 100, pct, float64(len(rows)))
}

func TestAggregateBy_EmptyInput(t *testing.T) {
	rows := AggregateBy([]fleet.Trip{}, ByVehicle[fleet.Trip], tripDistance)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestRow_AverageOfEmptyGroup(t *testing.T) {
	assert.Equal(t, 0.0, Row{}.Average(0))
	assert.Equal(t, 0.0, Row{Count: 2}.Average(3))
}

// ========================================
// ByMonth / ByCategory
// ========================================

func TestByMonth_PreseedsTwelveMonths(t *testing.T) {
	events := []fleet.MaintenanceEvent{
		{ID: "m1", Date: "2024-04-08", Cost: 100},
		{ID: "m2", Date: "2024-04-28", Cost: 50},
		{ID: "m3", Date: "2024-12-01", Cost: 25},
		{ID: "m4", Date: "2023-04-08", Cost: 999},
		{ID: "m5", Date: "", Cost: 999},
	}

	rows := ByMonth(events, maintenanceDate, 2024, maintenanceCost)

	require.Len(t, rows, 12)
	assert.Equal(t, "2024-01", rows[0].Key)
	assert.Equal(t, "Jan", rows[0].Label)
	assert.Equal(t, "Avr", rows[3].Label)
	assert.Equal(t, 150.0, rows[3].Sum(0))
	assert.Equal(t, 2, rows[3].Count)
	assert.Equal(t, 25.0, rows[11].Sum(0))
	assert.Equal(t, "Déc", rows[11].Label)
	assert.Equal(t, 0.0, rows[5].Sum(0))
	assert.Equal(t, 86.0, rows[3].PercentageOfTotal)
}

func TestByCategory(t *testing.T) {
	events := []fleet.MaintenanceEvent{
		{Category: " Vidange ", Cost: 10},
		{Category: "Freins", Cost: 30},
		{Category: "Vidange", Cost: 10},
		{Category: "", Cost: 5},
	}

	rows := AggregateBy(events, ByCategory, maintenanceCost)

	require.Len(t, rows, 2)
	assert.Equal(t, "Freins", rows[0].Key)
	assert.Equal(t, "Vidange", rows[1].Key)
	assert.Equal(t, 2, rows[1].Count)
}

func TestMonthShortLabel(t *testing.T) {
	assert.Equal(t, "Fév", MonthShortLabel(time.February))
	assert.Equal(t, "Aoû", MonthShortLabel(time.August))
	assert.Equal(t, "", MonthShortLabel(time.Month(13)))
}
