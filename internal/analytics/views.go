package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/period"
)

// NoneLabel marks an empty ranking.
const NoneLabel = "—"

// Share is one slice of a cost breakdown
type Share struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// DayPoint is the distance driven on one day
type DayPoint struct {
	Date  string  `json:"date"`
	Label string  `json:"label"`
	Km    float64 `json:"km"`
}

// ScheduledItem is a pending maintenance reminder with its vehicle resolved
type ScheduledItem struct {
	ID               string   `json:"id"`
	VehicleID        string   `json:"vehicle_id"`
	Vehicle          string   `json:"vehicle"`
	Category         string   `json:"category"`
	Trigger          string   `json:"trigger"`
	Description      string   `json:"description"`
	DueDate          string   `json:"due_date,omitempty"`
	MileageThreshold *float64 `json:"mileage_threshold,omitempty"`
	RemainingKm      *float64 `json:"remaining_km,omitempty"`
	DaysLate         int      `json:"days_late,omitempty"`
}

// FuelLine is a fill-up as listed in views and exports
type FuelLine struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Vehicle       string  `json:"vehicle"`
	Driver        string  `json:"driver"`
	Station       string  `json:"station"`
	Liters        float64 `json:"liters"`
	Cost          float64 `json:"cost"`
	PricePerLiter float64 `json:"price_per_liter"`
}

// MaintenanceLine is a maintenance event as listed in views and exports
type MaintenanceLine struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Vehicle  string  `json:"vehicle"`
	Category string  `json:"category"`
	Reason   string  `json:"reason,omitempty"`
	Garage   string  `json:"garage"`
	Cost     float64 `json:"cost"`
}

// TripLine is a trip as listed in views and exports
type TripLine struct {
	ID         string   `json:"id"`
	Date       string   `json:"date"`
	Time       string   `json:"time,omitempty"`
	VehicleID  string   `json:"vehicle_id"`
	Vehicle    string   `json:"vehicle"`
	DriverID   string   `json:"driver_id"`
	Driver     string   `json:"driver"`
	Reasons    []string `json:"reasons"`
	DistanceKm float64  `json:"distance_km"`
	Status     string   `json:"status"`
}

func shares(labels []string, values []float64) []Share {
	var total float64
	for _, v := range values {
		total += v
	}
	out := make([]Share, len(labels))
	for i, label := range labels {
		out[i] = Share{Label: label, Value: values[i]}
		if total > 0 {
			out[i].Percentage = math.Round(100 * values[i] / total)
		}
	}
	return out
}

func labelRows(rows []Row, label Labeler) []Row {
	for i := range rows {
		rows[i].Label = label(rows[i].Key)
	}
	return rows
}

func identityLabel(key string) string { return key }

// scheduleStatus splits pending reminders into upcoming and overdue, each
// ordered by urgency. Mileage reminders are overdue once the odometer has
// reached the threshold.
func scheduleStatus(snap *fleet.Snapshot, dir *Directory, now time.Time) (upcoming, overdue []ScheduledItem) {
	upcoming, overdue = []ScheduledItem{}, []ScheduledItem{}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	type dated struct {
		item ScheduledItem
		due  time.Time
	}
	var soon, late []dated
	var byMileage, lateMileage []ScheduledItem

	for _, s := range snap.Scheduled {
		if !s.Pending() {
			continue
		}
		vid := s.VehicleID()
		item := ScheduledItem{
			ID:               s.ID,
			VehicleID:        vid,
			Vehicle:          dir.Vehicle(vid),
			Category:         s.Category,
			Trigger:          s.Trigger,
			Description:      s.Describe(),
			MileageThreshold: s.MileageThreshold,
		}

		if due, ok := s.Due(); ok {
			item.DueDate = due.Format("2006-01-02")
			if due.Before(today) {
				item.DaysLate = int(math.Round(today.Sub(due).Hours() / 24))
				late = append(late, dated{item, due})
			} else {
				soon = append(soon, dated{item, due})
			}
			continue
		}

		if s.Trigger == fleet.TriggerMileage && s.MileageThreshold != nil {
			v, ok := snap.VehicleByID(vid)
			if !ok {
				byMileage = append(byMileage, item)
				continue
			}
			remaining := *s.MileageThreshold - v.Odometer
			item.RemainingKm = &remaining
			if remaining <= 0 {
				lateMileage = append(lateMileage, item)
			} else {
				byMileage = append(byMileage, item)
			}
		}
	}

	sort.SliceStable(soon, func(i, j int) bool { return soon[i].due.Before(soon[j].due) })
	sort.SliceStable(late, func(i, j int) bool { return late[i].due.Before(late[j].due) })

	for _, d := range soon {
		upcoming = append(upcoming, d.item)
	}
	upcoming = append(upcoming, byMileage...)
	for _, d := range late {
		overdue = append(overdue, d.item)
	}
	overdue = append(overdue, lateMileage...)
	return upcoming, overdue
}

func fuelLines(entries []fleet.FuelEntry, dir *Directory) []FuelLine {
	lines := make([]FuelLine, 0, len(entries))
	for _, f := range entries {
		lines = append(lines, FuelLine{
			ID:            f.ID,
			Date:          displayDate(f.When()),
			Vehicle:       dir.Vehicle(f.VehicleID()),
			Driver:        dir.Driver(f.DriverID()),
			Station:       f.Station,
			Liters:        f.Liters,
			Cost:          f.Cost(),
			PricePerLiter: Round1(f.PricePerLiter()),
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Date > lines[j].Date })
	return lines
}

func maintenanceLines(events []fleet.MaintenanceEvent, dir *Directory) []MaintenanceLine {
	lines := make([]MaintenanceLine, 0, len(events))
	for _, m := range events {
		lines = append(lines, MaintenanceLine{
			ID:       m.ID,
			Date:     displayDate(m.When()),
			Vehicle:  dir.Vehicle(m.VehicleID()),
			Category: m.Category,
			Reason:   m.Reason,
			Garage:   m.Garage,
			Cost:     m.Cost,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Date > lines[j].Date })
	return lines
}

func tripLine(t fleet.Trip, dir *Directory) TripLine {
	reasons := t.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	vid, did := t.VehicleID(), t.DriverID()
	return TripLine{
		ID:         t.ID,
		Date:       displayDate(t.When()),
		Time:       strings.TrimSpace(t.Time),
		VehicleID:  vid,
		Vehicle:    dir.Vehicle(vid),
		DriverID:   did,
		Driver:     dir.Driver(did),
		Reasons:    reasons,
		DistanceKm: t.DistanceKm(),
		Status:     t.Status,
	}
}

func displayDate(t time.Time, ok bool) string {
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

func yearOf(p period.Period) int {
	if !p.Anchor.IsZero() {
		return p.Anchor.Year()
	}
	return p.Start.Year()
}
