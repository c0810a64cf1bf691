package main

import (
	"io"
	"testing"
	"time"

	"github.com/richxcame/fleet-analytics/internal/period"
	"github.com/richxcame/fleet-analytics/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.April, 17, 9, 0, 0, 0, time.UTC)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantKind   report.Kind
		wantFormat report.Format
		wantPeriod string
	}{
		{
			name:       "defaults",
			args:       nil,
			wantKind:   report.KindFuel,
			wantFormat: report.FormatPDF,
			wantPeriod: "month:2024-04-01:2024-04-30",
		},
		{
			name:       "fleet defaults to the year",
			args:       []string{"-kind", "parc-auto"},
			wantKind:   report.KindFleet,
			wantFormat: report.FormatPDF,
			wantPeriod: "year:2024-01-01:2024-12-31",
		},
		{
			name:       "explicit quarter",
			args:       []string{"-kind", "entretien", "-period", "quarter", "-start", "2024-02-10", "-format", "xlsx"},
			wantKind:   report.KindMaintenance,
			wantFormat: report.FormatXLSX,
			wantPeriod: "quarter:2024-01-01:2024-03-31",
		},
		{
			name:       "end implies a range",
			args:       []string{"-start", "2024-04-01", "-end", "2024-04-10"},
			wantKind:   report.KindFuel,
			wantFormat: report.FormatPDF,
			wantPeriod: "range:2024-04-01:2024-04-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseOptions(tt.args, now, io.Discard)

			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, opts.kind)
			assert.Equal(t, tt.wantFormat, opts.format)
			assert.Equal(t, tt.wantPeriod, opts.period.Key())
		})
	}
}

func TestParseOptions_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown kind", args: []string{"-kind", "payroll"}},
		{name: "unknown format", args: []string{"-format", "docx"}},
		{name: "range without end", args: []string{"-period", "range", "-start", "2024-04-01"}},
		{name: "bad date", args: []string{"-start", "17/04/2024x"}},
		{name: "unknown flag", args: []string{"-verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptions(tt.args, now, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestParseOptions_OutDir(t *testing.T) {
	opts, err := parseOptions([]string{"-out", "/tmp/rapports", "-period", "day"}, now, io.Discard)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/rapports", opts.outDir)
	assert.Equal(t, period.KindDay, opts.period.Kind)
}
