package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/period"
)

// Trip sort orders
const (
	SortDateAsc  = "date-asc"
	SortDateDesc = "date-desc"
	SortKmAsc    = "km-asc"
	SortKmDesc   = "km-desc"
)

// TripFilter narrows the trip listing. Zero values disable a criterion.
type TripFilter struct {
	Search    string         `json:"search,omitempty"`
	Date      string         `json:"date,omitempty"`
	Period    *period.Period `json:"period,omitempty"`
	VehicleID string         `json:"vehicle_id,omitempty"`
	DriverID  string         `json:"driver_id,omitempty"`
	Sort      string         `json:"sort,omitempty"`
}

// TripsView is the filtered, sorted trip listing with its statistics
type TripsView struct {
	Filter              TripFilter `json:"filter"`
	Count               int        `json:"count"`
	TotalKm             float64    `json:"total_km"`
	AverageKm           float64    `json:"average_km"`
	InProgress          int        `json:"in_progress"`
	BusinessDays        int        `json:"business_days"`
	TripsPerBusinessDay float64    `json:"trips_per_business_day"`
	MostActiveVehicle   string     `json:"most_active_vehicle"`
	MostActiveDriver    string     `json:"most_active_driver"`
	Trips               []TripLine `json:"trips"`
}

// Trips filters and sorts the snapshot's trips. Business days are counted
// over the filter's period, the filtered day, or else the month of now.
func Trips(snap *fleet.Snapshot, filter TripFilter, now time.Time) *TripsView {
	dir := NewDirectory(snap)
	trips := filterTripList(snap.Trips, filter)
	sortTrips(trips, filter.Sort)

	view := &TripsView{Filter: filter, Count: len(trips), Trips: make([]TripLine, 0, len(trips))}
	for _, t := range trips {
		view.TotalKm += t.DistanceKm()
		if t.InProgress() {
			view.InProgress++
		}
		view.Trips = append(view.Trips, tripLine(t, dir))
	}
	view.AverageKm = Ratio(view.TotalKm, float64(view.Count))

	scope := period.Month(now)
	if filter.Period != nil {
		scope = *filter.Period
	} else if day, ok := parseDay(filter.Date); ok {
		scope = period.Day(day)
	}
	start, end := scope.Bounds()
	view.BusinessDays = BusinessDays(start, end)
	view.TripsPerBusinessDay = Round1(Ratio(float64(view.Count), float64(view.BusinessDays)))

	view.MostActiveVehicle = mostActive(AggregateBy(trips, ByVehicle[fleet.Trip]), dir.Vehicle)
	view.MostActiveDriver = mostActive(AggregateBy(trips, ByDriver[fleet.Trip]), dir.Driver)
	return view
}

func filterTripList(trips []fleet.Trip, filter TripFilter) []fleet.Trip {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	day, hasDay := parseDay(filter.Date)

	out := make([]fleet.Trip, 0, len(trips))
	for _, t := range trips {
		if term != "" && !matchesReason(t.Reasons, term) {
			continue
		}
		if filter.VehicleID != "" && t.VehicleID() != filter.VehicleID {
			continue
		}
		if filter.DriverID != "" && t.DriverID() != filter.DriverID {
			continue
		}
		if hasDay || filter.Period != nil {
			when, ok := t.When()
			if !ok {
				continue
			}
			if hasDay && !period.Day(day).Contains(when) {
				continue
			}
			if filter.Period != nil && !filter.Period.Contains(when) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func matchesReason(reasons []string, term string) bool {
	for _, r := range reasons {
		if strings.Contains(strings.ToLower(r), term) {
			return true
		}
	}
	return false
}

func sortTrips(trips []fleet.Trip, order string) {
	dateKey := func(t fleet.Trip) time.Time {
		when, _ := t.When()
		return when
	}
	switch order {
	case SortDateAsc:
		sort.SliceStable(trips, func(i, j int) bool { return dateKey(trips[i]).Before(dateKey(trips[j])) })
	case SortDateDesc:
		sort.SliceStable(trips, func(i, j int) bool { return dateKey(trips[i]).After(dateKey(trips[j])) })
	case SortKmAsc:
		sort.SliceStable(trips, func(i, j int) bool { return trips[i].DistanceKm() < trips[j].DistanceKm() })
	case SortKmDesc:
		sort.SliceStable(trips, func(i, j int) bool { return trips[i].DistanceKm() > trips[j].DistanceKm() })
	}
}

func mostActive(rows []Row, label Labeler) string {
	top := TopN(rows, 1, label)
	if len(top) == 0 {
		return NoneLabel
	}
	return top[0].Label
}

func parseDay(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	return t, err == nil
}
