// Package analytics computes dashboards, rankings and indicators from an
// immutable fleet snapshot. Every view is a pure function of its inputs.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/period"
)

// Metric is a named per-record value summed within each group.
type Metric[T any] struct {
	Name string
	Sum  func(T) float64
}

// Sum builds a Metric.
func Sum[T any](name string, fn func(T) float64) Metric[T] {
	return Metric[T]{Name: name, Sum: fn}
}

// Row is one group of an aggregation
type Row struct {
	Key               string    `json:"key"`
	Label             string    `json:"label,omitempty"`
	Count             int       `json:"count"`
	Sums              []float64 `json:"sums,omitempty"`
	PercentageOfTotal float64   `json:"percentage_of_total"`
}

// Primary is the first summed metric, or the count when nothing is summed.
func (r Row) Primary() float64 {
	if len(r.Sums) > 0 {
		return r.Sums[0]
	}
	return float64(r.Count)
}

// Sum returns the i-th summed metric, 0 when out of range.
func (r Row) Sum(i int) float64 {
	if i < 0 || i >= len(r.Sums) {
		return 0
	}
	return r.Sums[i]
}

// Average is Sum(i) / Count, 0 for an empty group.
func (r Row) Average(i int) float64 {
	return Ratio(r.Sum(i), float64(r.Count))
}

// AggregateBy groups records by key, counts them and sums every metric.
// Records with an empty key belong to no group. Rows are sorted by their
// primary value, descending; ties keep first-encountered order.
func AggregateBy[T any](records []T, keyOf func(T) string, metrics ...Metric[T]) []Row {
	rows := make([]Row, 0)
	index := make(map[string]int)

	for _, rec := range records {
		key := strings.TrimSpace(keyOf(rec))
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, Row{Key: key, Sums: make([]float64, len(metrics))})
		}
		rows[i].Count++
		for m, metric := range metrics {
			rows[i].Sums[m] += metric.Sum(rec)
		}
	}

	applyPercentages(rows)
	sortByPrimary(rows)
	return rows
}

// ByMonth buckets records into the twelve calendar months of year, in
// calendar order. Months without records are present with zero values.
func ByMonth[T any](records []T, dateOf func(T) (time.Time, bool), year int, metrics ...Metric[T]) []Row {
	rows := make([]Row, 12)
	for m := range rows {
		rows[m] = Row{
			Key:   fmt.Sprintf("%04d-%02d", year, m+1),
			Label: MonthShortLabel(time.Month(m + 1)),
			Sums:  make([]float64, len(metrics)),
		}
	}

	for _, rec := range records {
		t, ok := dateOf(rec)
		if !ok || t.Year() != year {
			continue
		}
		row := &rows[int(t.Month())-1]
		row.Count++
		for i, metric := range metrics {
			row.Sums[i] += metric.Sum(rec)
		}
	}

	applyPercentages(rows)
	return rows
}

var monthShortLabels = [...]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Jun", "Jul", "Aoû", "Sep", "Oct", "Nov", "Déc"}

// MonthShortLabel is the axis label of a month.
func MonthShortLabel(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthShortLabels[m-1]
}

// ========================================
// GROUPING KEYS
// ========================================

type vehicleScoped interface{ VehicleID() string }

type driverScoped interface{ DriverID() string }

// ByVehicle keys a record by its normalized vehicle reference.
func ByVehicle[T vehicleScoped](rec T) string { return rec.VehicleID() }

// ByDriver keys a record by its normalized driver reference.
func ByDriver[T driverScoped](rec T) string { return rec.DriverID() }

// ByCategory keys a maintenance event by category.
func ByCategory(m fleet.MaintenanceEvent) string { return strings.TrimSpace(m.Category) }

// ========================================
// COMMON METRICS
// ========================================

var (
	tripDistance    = Sum("distance", func(t fleet.Trip) float64 { return t.DistanceKm() })
	fuelCost        = Sum("cost", func(f fleet.FuelEntry) float64 { return f.Cost() })
	fuelLiters      = Sum("liters", func(f fleet.FuelEntry) float64 { return f.Liters })
	maintenanceCost = Sum("cost", func(m fleet.MaintenanceEvent) float64 { return m.Cost })
)

func tripDate(t fleet.Trip) (time.Time, bool) { return t.When() }
func fuelDate(f fleet.FuelEntry) (time.Time, bool) { return f.When() }
func maintenanceDate(m fleet.MaintenanceEvent) (time.Time, bool) { return m.When() }

func filterTrips(trips []fleet.Trip, p period.Period) []fleet.Trip {
	return period.Filter(trips, tripDate, p)
}

func filterFuel(entries []fleet.FuelEntry, p period.Period) []fleet.FuelEntry {
	return period.Filter(entries, fuelDate, p)
}

func filterMaintenance(events []fleet.MaintenanceEvent, p period.Period) []fleet.MaintenanceEvent {
	return period.Filter(events, maintenanceDate, p)
}

func applyPercentages(rows []Row) {
	var total float64
	for _, r := range rows {
		total += r.Primary()
	}
	for i := range rows {
		if total == 0 {
			rows[i].PercentageOfTotal = 0
			continue
		}
		pct := math.Round(100 * rows[i].Primary() / total)
		rows[i].PercentageOfTotal = math.Max(0, math.Min(100, pct))
	}
}

func sortByPrimary(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Primary() > rows[j].Primary()
	})
}
