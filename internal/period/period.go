// Package period scopes dated records to calendar windows.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/validation"
)

// Kind names a calendar window
type Kind string

const (
	KindDay     Kind = "day"
	KindMonth   Kind = "month"
	KindQuarter Kind = "quarter"
	KindYear    Kind = "year"
	KindRange   Kind = "range"
)

var monthNames = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// Period is a calendar window anchored on a date, or an explicit range.
type Period struct {
	Kind   Kind      `json:"kind"`
	Anchor time.Time `json:"anchor"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Day covers the anchor's calendar day.
func Day(anchor time.Time) Period {
	start := startOfDay(anchor)
	return Period{Kind: KindDay, Anchor: anchor, Start: start, End: endOfDay(start)}
}

// Month covers the anchor's calendar month.
func Month(anchor time.Time) Period {
	start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	return Period{Kind: KindMonth, Anchor: anchor, Start: start, End: start.AddDate(0, 1, 0).Add(-time.Millisecond)}
}

// Quarter covers the anchor's calendar quarter.
func Quarter(anchor time.Time) Period {
	first := time.Month((int(anchor.Month())-1)/3*3 + 1)
	start := time.Date(anchor.Year(), first, 1, 0, 0, 0, 0, anchor.Location())
	return Period{Kind: KindQuarter, Anchor: anchor, Start: start, End: start.AddDate(0, 3, 0).Add(-time.Millisecond)}
}

// Year covers the anchor's calendar year.
func Year(anchor time.Time) Period {
	start := time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, anchor.Location())
	return Period{Kind: KindYear, Anchor: anchor, Start: start, End: start.AddDate(1, 0, 0).Add(-time.Millisecond)}
}

// Range keeps start as given and extends end to the end of its day.
func Range(start, end time.Time) Period {
	return Period{Kind: KindRange, Anchor: start, Start: start, End: endOfDay(end)}
}

// Bounds returns the inclusive window.
func (p Period) Bounds() (time.Time, time.Time) {
	return p.Start, p.End
}

// Contains reports whether t lies in the window, both ends inclusive.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Previous returns the window immediately before p, of the same kind.
// A range shifts back by its own number of days.
func (p Period) Previous() Period {
	switch p.Kind {
	case KindDay:
		return Day(p.Start.AddDate(0, 0, -1))
	case KindMonth:
		return Month(p.Start.AddDate(0, -1, 0))
	case KindQuarter:
		return Quarter(p.Start.AddDate(0, -3, 0))
	case KindYear:
		return Year(p.Start.AddDate(-1, 0, 0))
	default:
		days := p.Days()
		start := p.Start.AddDate(0, 0, -days)
		return Range(start, start.AddDate(0, 0, days-1))
	}
}

// Days counts the calendar days the window touches.
func (p Period) Days() int {
	if p.End.Before(p.Start) {
		return 0
	}
	first := startOfDay(p.Start)
	last := startOfDay(p.End)
	n := 0
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// Label renders the window for report headers.
func (p Period) Label() string {
	switch p.Kind {
	case KindDay:
		return p.Start.Format("02/01/2006")
	case KindMonth:
		return fmt.Sprintf("%s %d", monthNames[p.Start.Month()-1], p.Start.Year())
	case KindQuarter:
		return fmt.Sprintf("T%d %d", (int(p.Start.Month())-1)/3+1, p.Start.Year())
	case KindYear:
		return fmt.Sprintf("%d", p.Start.Year())
	default:
		return fmt.Sprintf("%s - %s", p.Start.Format("02/01/2006"), p.End.Format("02/01/2006"))
	}
}

// Key is a stable identifier used in cache keys.
func (p Period) Key() string {
	return fmt.Sprintf("%s:%s:%s", p.Kind, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// MonthName returns the French name of a month.
func MonthName(m time.Month) string {
	return monthNames[m-1]
}

// Filter keeps the records whose date parses and lies in p. The result is never nil.
func Filter[T any](records []T, dateOf func(T) (time.Time, bool), p Period) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if t, ok := dateOf(r); ok && p.Contains(t) {
			out = append(out, r)
		}
	}
	return out
}

// Parse maps API query values onto a Period. Calendar kinds are anchored on
// start when given, else on now.
func Parse(kind, start, end string, now time.Time) (Period, error) {
	anchor := now
	if start != "" {
		t, ok := validation.ParseDate(start)
		if !ok {
			return Period{}, common.NewBadRequestError("invalid start_date", nil)
		}
		anchor = t
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "month", "mois":
		return Month(anchor), nil
	case "day", "jour":
		return Day(anchor), nil
	case "quarter", "trimestre":
		return Quarter(anchor), nil
	case "year", "annee", "année":
		return Year(anchor), nil
	case "range", "periode", "période":
		if start == "" || end == "" {
			return Period{}, common.NewBadRequestError("start_date and end_date are required for a range", nil)
		}
		to, ok := validation.ParseDate(end)
		if !ok {
			return Period{}, common.NewBadRequestError("invalid end_date", nil)
		}
		if err := validation.ValidateDateRange(startOfDay(anchor), startOfDay(to)); err != nil {
			return Period{}, common.NewBadRequestError("end_date must not be before start_date", err)
		}
		return Range(anchor, to), nil
	default:
		return Period{}, common.NewBadRequestError(fmt.Sprintf("unknown period %q", kind), nil)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}
