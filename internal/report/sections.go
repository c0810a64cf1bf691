package report

import (
	"strings"

	"github.com/richxcame/fleet-analytics/internal/analytics"
	"github.com/richxcame/fleet-analytics/internal/format"
	"github.com/richxcame/fleet-analytics/pkg/validation"
)

// SectionKind selects how a section is laid out
type SectionKind string

const (
	SectionHeading  SectionKind = "heading"
	SectionKeyValue SectionKind = "key-value"
	SectionTable    SectionKind = "table"
	SectionText     SectionKind = "text"
)

// KeyValue is one labelled figure
type KeyValue struct {
	Key   string
	Value string
}

// Column of a table. A zero width shares the remaining space.
type Column struct {
	Label string
	Width float64
	Align Align
}

func (c Column) align() Align {
	if c.Align == "" {
		return AlignLeft
	}
	return c.Align
}

// SectionSpec is one block of report content
type SectionSpec struct {
	Kind    SectionKind
	Title   string
	Pairs   []KeyValue
	Columns []Column
	Rows    [][]string
	Text    string
}

// Heading creates a title section
func Heading(title string) SectionSpec {
	return SectionSpec{Kind: SectionHeading, Title: title}
}

// KeyValues creates a key-value list
func KeyValues(title string, pairs ...KeyValue) SectionSpec {
	return SectionSpec{Kind: SectionKeyValue, Title: title, Pairs: pairs}
}

// Table creates a tabular section
func Table(title string, columns []Column, rows [][]string) SectionSpec {
	return SectionSpec{Kind: SectionTable, Title: title, Columns: columns, Rows: rows}
}

// Narrative creates a free text section
func Narrative(title, text string) SectionSpec {
	return SectionSpec{Kind: SectionText, Title: title, Text: text}
}

// ========================================
// VIEW SECTIONS
// ========================================

// FuelSections lays out the fuel report.
func FuelSections(v *analytics.FuelView, symbol string) []SectionSpec {
	money := func(x float64) string { return format.Currency(x, symbol) }

	return []SectionSpec{
		KeyValues("Synthèse",
			KeyValue{"Dépense totale", money(v.TotalCost)},
			KeyValue{"Volume total", format.Ratio(v.TotalLiters) + " L"},
			KeyValue{"Nombre de pleins", format.Integer(float64(v.FillUps))},
			KeyValue{"Litres par plein", format.Ratio(v.AverageLiters) + " L"},
			KeyValue{"Prix moyen du litre", money(v.AveragePricePerLiter)},
			KeyValue{"Jours entre deux pleins", format.Ratio(v.AverageGapDays)},
			KeyValue{"Période précédente", money(v.PreviousCost)},
			KeyValue{"Évolution", format.SignedPercent(v.CostDelta)},
		),
		Table("Dépenses par véhicule", costLiterColumns("Véhicule"), costLiterRows(v.ByVehicle, symbol)),
		Table("Dépenses par conducteur", costLiterColumns("Conducteur"), costLiterRows(v.ByDriver, symbol)),
		Table("Dépenses par type de carburant", shareColumns("Type"), shareRows(v.ByFuelType, symbol)),
		Table("Détail des pleins", []Column{
			{Label: "Date", Width: 22},
			{Label: "Véhicule", Width: 40},
			{Label: "Conducteur", Width: 32},
			{Label: "Station", Width: 28},
			{Label: "Litres", Width: 16, Align: AlignRight},
			{Label: "Coût", Width: 30, Align: AlignRight},
			{Label: "Prix/L", Width: 22, Align: AlignRight},
		}, fuelLineRows(v.Entries, symbol)),
	}
}

// MaintenanceSections lays out the maintenance report.
func MaintenanceSections(v *analytics.MaintenanceView, symbol string) []SectionSpec {
	money := func(x float64) string { return format.Currency(x, symbol) }

	events := make([][]string, 0, len(v.Events))
	for _, e := range v.Events {
		events = append(events, []string{displayDate(e.Date), e.Vehicle, e.Category, e.Garage, money(e.Cost)})
	}

	return []SectionSpec{
		KeyValues("Synthèse",
			KeyValue{"Coût total", money(v.TotalCost)},
			KeyValue{"Nombre d'interventions", format.Integer(float64(v.Count))},
			KeyValue{"Coût moyen", money(v.AverageCost)},
			KeyValue{"Période précédente", money(v.PreviousCost)},
			KeyValue{"Évolution", format.SignedPercent(v.CostDelta)},
		),
		Table("Coûts par catégorie", shareColumns("Catégorie"), shareRows(v.ByCategory, symbol)),
		Table("Coûts par véhicule", shareColumns("Véhicule"), shareRows(v.ByVehicle, symbol)),
		Table("Entretiens à venir", scheduleColumns(), scheduleRows(v.Upcoming)),
		Table("Entretiens en retard", scheduleColumns(), scheduleRows(v.Overdue)),
		Table("Historique des interventions", []Column{
			{Label: "Date", Width: 24},
			{Label: "Véhicule", Width: 45},
			{Label: "Catégorie", Width: 30},
			{Label: "Garage", Width: 45},
			{Label: "Coût", Width: 36, Align: AlignRight},
		}, events),
	}
}

// FleetSections lays out the fleet report.
func FleetSections(v *analytics.FleetView, symbol string) []SectionSpec {
	money := func(x float64) string { return format.Currency(x, symbol) }

	ownership := make([][]string, 0, len(v.Ownership))
	for _, o := range v.Ownership {
		ownership = append(ownership, []string{o.Label, money(o.Fuel), money(o.Maintenance), money(o.Total)})
	}

	activity := make([][]string, 0, len(v.ActivityRanking))
	for _, r := range v.ActivityRanking {
		activity = append(activity, []string{r.Label, format.Integer(float64(r.Count)), format.Percent(r.PercentageOfTotal)})
	}

	types := make([][]string, 0, len(v.VehicleTypes))
	for _, r := range v.VehicleTypes {
		types = append(types, []string{r.Label, format.Integer(float64(r.Count)), format.Percent(r.PercentageOfTotal)})
	}

	return []SectionSpec{
		KeyValues("Synthèse",
			KeyValue{"Véhicules", format.Integer(float64(v.VehicleCount))},
			KeyValue{"Conducteurs", format.Integer(float64(v.DriverCount))},
			KeyValue{"Distance parcourue", format.Distance(v.TotalKm)},
			KeyValue{"Dépenses carburant", money(v.FuelCost)},
			KeyValue{"Dépenses d'entretien", money(v.MaintenanceCost)},
			KeyValue{"Coût total", money(v.TotalCost)},
			KeyValue{"Véhicule le plus utilisé", v.MostUsedVehicle},
			KeyValue{"Entretien le plus coûteux", v.HighestMaintenance},
		),
		Table("Répartition du parc", countColumns("Type"), types),
		Table("Coût total de possession", []Column{
			{Label: "Véhicule", Width: 60},
			{Label: "Carburant", Width: 40, Align: AlignRight},
			{Label: "Entretien", Width: 40, Align: AlignRight},
			{Label: "Total", Width: 40, Align: AlignRight},
		}, ownership),
		Table("Coûts de maintenance", shareColumns("Véhicule"), shareRows(v.MaintenanceRanking, symbol)),
		Table("Taux d'activité", countColumns("Véhicule"), activity),
	}
}

func costLiterColumns(first string) []Column {
	return []Column{
		{Label: first, Width: 60},
		{Label: "Pleins", Width: 20, Align: AlignRight},
		{Label: "Litres", Width: 30, Align: AlignRight},
		{Label: "Coût", Width: 45, Align: AlignRight},
		{Label: "Part", Width: 25, Align: AlignRight},
	}
}

// costLiterRows expects rows aggregated on cost then liters.
func costLiterRows(rows []analytics.Row, symbol string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Label,
			format.Integer(float64(r.Count)),
			format.Ratio(r.Sum(1)),
			format.Currency(r.Sum(0), symbol),
			format.Percent(r.PercentageOfTotal),
		})
	}
	return out
}

func shareColumns(first string) []Column {
	return []Column{
		{Label: first, Width: 75},
		{Label: "Nombre", Width: 25, Align: AlignRight},
		{Label: "Coût", Width: 50, Align: AlignRight},
		{Label: "Part", Width: 30, Align: AlignRight},
	}
}

func shareRows(rows []analytics.Row, symbol string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Label,
			format.Integer(float64(r.Count)),
			format.Currency(r.Sum(0), symbol),
			format.Percent(r.PercentageOfTotal),
		})
	}
	return out
}

func countColumns(first string) []Column {
	return []Column{
		{Label: first, Width: 100},
		{Label: "Nombre", Width: 40, Align: AlignRight},
		{Label: "Part", Width: 40, Align: AlignRight},
	}
}

func scheduleColumns() []Column {
	return []Column{
		{Label: "Véhicule", Width: 50},
		{Label: "Catégorie", Width: 35},
		{Label: "Échéance", Width: 60},
		{Label: "Retard", Width: 35, Align: AlignRight},
	}
}

func scheduleRows(items []analytics.ScheduledItem) [][]string {
	out := make([][]string, 0, len(items))
	for _, it := range items {
		late := ""
		if it.DaysLate > 0 {
			late = format.Integer(float64(it.DaysLate)) + " j"
		}
		due := it.Description
		if due == "" {
			due = displayDate(it.DueDate)
		}
		out = append(out, []string{it.Vehicle, it.Category, due, late})
	}
	return out
}

func fuelLineRows(lines []analytics.FuelLine, symbol string) [][]string {
	out := make([][]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, []string{
			displayDate(l.Date),
			l.Vehicle,
			l.Driver,
			strings.TrimSpace(l.Station),
			format.Ratio(l.Liters),
			format.Currency(l.Cost, symbol),
			format.Integer(l.PricePerLiter),
		})
	}
	return out
}

// displayDate prints ISO dates the French way; unparseable values pass through.
func displayDate(s string) string {
	t, ok := validation.ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006")
}
