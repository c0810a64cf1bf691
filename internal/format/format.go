// Package format renders figures the way the console displays them:
// space-grouped thousands and a comma decimal separator.
package format

import (
	"math"

	"github.com/dustin/go-humanize"
)

// DefaultCurrency is the symbol appended to amounts
const DefaultCurrency = "Ar"

// Kind selects a value formatter for charts and reports
type Kind string

const (
	KindCurrency Kind = "currency"
	KindRatio    Kind = "ratio"
	KindInteger  Kind = "integer"
	KindPercent  Kind = "percent"
	KindDistance Kind = "distance"
	KindVolume   Kind = "volume"
)

const (
	groupedInteger = "# ###,"
	groupedRatio   = "# ###,#"
)

// Currency renders a grouped integer amount followed by the symbol.
func Currency(v float64, symbol string) string {
	if symbol == "" {
		symbol = DefaultCurrency
	}
	return Integer(v) + " " + symbol
}

// Integer renders v rounded to a space-grouped integer.
func Integer(v float64) string {
	return humanize.FormatFloat(groupedInteger, clean(v))
}

// Ratio renders v with one decimal.
func Ratio(v float64) string {
	return humanize.FormatFloat(groupedRatio, clean(v))
}

// Percent renders a rounded percentage.
func Percent(v float64) string {
	return humanize.FormatFloat(groupedInteger, clean(v)) + " %"
}

// SignedPercent prefixes gains with "+".
func SignedPercent(v float64) string {
	v = clean(v)
	if v > 0 {
		return "+" + Ratio(v) + " %"
	}
	return Ratio(v) + " %"
}

// Distance renders kilometres.
func Distance(v float64) string {
	return Integer(v) + " km"
}

// Liters renders a fuel volume.
func Liters(v float64) string {
	return Ratio(v) + " L"
}

// Value dispatches on kind. Unknown kinds fall back to Integer.
func Value(kind Kind, v float64, symbol string) string {
	switch kind {
	case KindCurrency:
		return Currency(v, symbol)
	case KindRatio:
		return Ratio(v)
	case KindPercent:
		return Percent(v)
	case KindDistance:
		return Distance(v)
	case KindVolume:
		return Liters(v)
	default:
		return Integer(v)
	}
}

// clean maps NaN and infinities to 0 so nothing non-finite reaches a report.
func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
