package analytics

import (
	"math"
	"sort"
	"time"
)

// Thresholds used by the views.
const (
	TopLimit            = 5
	EfficiencyThreshold = 30.0
	TrendThreshold      = 5.0
)

// Level classifies a value against a reference average
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Direction classifies a period-over-period delta
type Direction string

const (
	TrendUp     Direction = "up"
	TrendDown   Direction = "down"
	TrendStable Direction = "stable"
)

// PeriodDelta is the percentage change from previous to current.
// Going from 0 to something counts as +100 %, staying at 0 as 0 %.
func PeriodDelta(current, previous float64) float64 {
	if previous > 0 {
		return clean((current - previous) / previous * 100)
	}
	if current > 0 {
		return 100
	}
	return 0
}

// MonthlyAverage spreads a year-to-date total over the elapsed months.
func MonthlyAverage(yearTotal float64, now time.Time) float64 {
	return Ratio(yearTotal, float64(now.Month()))
}

// TopN returns the n largest rows by primary value, labelled through label.
// The input slice is left untouched.
func TopN(rows []Row, n int, label Labeler) []Row {
	ranked := make([]Row, len(rows))
	copy(ranked, rows)
	sortByPrimary(ranked)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	if label != nil {
		for i := range ranked {
			ranked[i].Label = label(ranked[i].Key)
		}
	}
	return ranked
}

// Band places value above, within or below ±thresholdPct of average.
// Without a reference average everything is medium.
func Band(value, average, thresholdPct float64) Level {
	if average <= 0 {
		return LevelMedium
	}
	switch {
	case value > average*(1+thresholdPct/100):
		return LevelHigh
	case value < average*(1-thresholdPct/100):
		return LevelLow
	default:
		return LevelMedium
	}
}

// Trend colours a delta percentage.
func Trend(deltaPct, thresholdPct float64) Direction {
	switch {
	case deltaPct > thresholdPct:
		return TrendUp
	case deltaPct < -thresholdPct:
		return TrendDown
	default:
		return TrendStable
	}
}

// BusinessDays counts Monday to Friday calendar days between start and end, inclusive.
func BusinessDays(start, end time.Time) int {
	day := time.Date(start.Year(), start.Month(), start.Day(), 12, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), end.Day(), 12, 0, 0, 0, start.Location())

	count := 0
	for !day.After(last) {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// AverageGapDays is the mean number of days between consecutive dates once sorted.
func AverageGapDays(dates []time.Time) float64 {
	if len(dates) < 2 {
		return 0
	}
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	span := sorted[len(sorted)-1].Sub(sorted[0]).Hours() / 24
	return Ratio(span, float64(len(sorted)-1))
}

// Ratio divides num by den and returns 0 instead of NaN or infinity.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return clean(num / den)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(clean(v)*10) / 10
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
