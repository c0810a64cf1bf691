// Package chart reshapes computed views into the declarative label/series
// contract consumed by the console's charting library.
package chart

import (
	"fmt"

	"github.com/richxcame/fleet-analytics/internal/analytics"
	"github.com/richxcame/fleet-analytics/internal/format"
)

// Kind is the chart type understood by the renderer
type Kind string

const (
	KindBar        Kind = "bar"
	KindLine       Kind = "line"
	KindDoughnut   Kind = "doughnut"
	KindPie        Kind = "pie"
	KindStackedBar Kind = "stacked-bar"
)

// MetricCount selects the row count instead of a metric sum.
const MetricCount = -1

var palette = []string{
	"#3498db", "#2ecc71", "#e74c3c", "#f39c12", "#9b59b6",
	"#34495e", "#1abc9c", "#e67e22", "#95a5a6", "#dc3545",
}

// Series is a single labelled value array
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Dataset is one series of a chart. Tooltips hold the preformatted hover
// text for each point.
type Dataset struct {
	Label    string    `json:"label"`
	Values   []float64 `json:"values"`
	Colors   []string  `json:"colors"`
	Tooltips []string  `json:"tooltips"`
}

// Spec is the declarative description of one chart
type Spec struct {
	ID         string      `json:"id"`
	Kind       Kind        `json:"kind"`
	Title      string      `json:"title"`
	Labels     []string    `json:"labels"`
	Datasets   []Dataset   `json:"datasets"`
	Format     format.Kind `json:"format"`
	Symbol     string      `json:"symbol,omitempty"`
	Horizontal bool        `json:"horizontal,omitempty"`
}

// Tick formats an axis value with the chart's formatter.
func (s Spec) Tick(v float64) string {
	return FormatValue(s.Format, v, s.Symbol)
}

// FormatValue is the tick and tooltip callback.
func FormatValue(kind format.Kind, v float64, symbol string) string {
	return format.Value(kind, v, symbol)
}

// ToSeries keeps the aggregator's order. label overrides the row's own label;
// rows without either fall back to their key.
func ToSeries(rows []analytics.Row, label analytics.Labeler, metric int) Series {
	s := Series{
		Labels: make([]string, 0, len(rows)),
		Values: make([]float64, 0, len(rows)),
	}
	for _, r := range rows {
		name := r.Label
		if label != nil {
			name = label(r.Key)
		}
		if name == "" {
			name = r.Key
		}
		s.Labels = append(s.Labels, name)
		s.Values = append(s.Values, rowValue(r, metric))
	}
	return s
}

func rowValue(r analytics.Row, metric int) float64 {
	if metric == MetricCount {
		return float64(r.Count)
	}
	return r.Sum(metric)
}

// single builds a one-dataset chart from a series.
func single(id string, kind Kind, title, datasetLabel string, s Series, f format.Kind, symbol string) Spec {
	spec := Spec{
		ID:     id,
		Kind:   kind,
		Title:  title,
		Labels: s.Labels,
		Format: f,
		Symbol: symbol,
	}
	ds := Dataset{Label: datasetLabel, Values: s.Values, Tooltips: make([]string, len(s.Values))}
	for i, v := range s.Values {
		ds.Tooltips[i] = fmt.Sprintf("%s: %s", s.Labels[i], spec.Tick(v))
	}
	if kind == KindDoughnut || kind == KindPie {
		ds.Colors = colors(len(s.Values))
	} else {
		ds.Colors = []string{palette[0]}
	}
	spec.Datasets = []Dataset{ds}
	return spec
}

// shareTooltips renders "label: value Ar (pct%)" for part-of-whole charts.
func shareTooltips(labels []string, values, percentages []float64, symbol string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%s: %s (%s%%)", labels[i], format.Currency(v, symbol), format.Integer(percentages[i]))
	}
	return out
}

func colors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}
