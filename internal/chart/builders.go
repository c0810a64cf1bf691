package chart

import (
	"time"

	"github.com/richxcame/fleet-analytics/internal/analytics"
	"github.com/richxcame/fleet-analytics/internal/format"
)

// View names served by the chart endpoint
const (
	ViewDashboard   = "dashboard"
	ViewFuel        = "fuel"
	ViewMaintenance = "maintenance"
	ViewFleet       = "fleet"
	ViewVehicle     = "vehicles"
	ViewDriver      = "drivers"
)

// Dashboard charts: 7-day distance line, monthly cost doughnut, top rankings.
func Dashboard(view *analytics.DashboardView, symbol string) []Spec {
	days := Series{
		Labels: make([]string, len(view.DailyDistance)),
		Values: make([]float64, len(view.DailyDistance)),
	}
	for i, d := range view.DailyDistance {
		days.Labels[i] = d.Label
		days.Values[i] = d.Km
	}

	return []Spec{
		single("daily-distance", KindLine, "Évolution du kilométrage total (7 derniers jours)",
			"Distance parcourue (km)", days, format.KindDistance, ""),
		shareChart("cost-breakdown", "Répartition des dépenses du mois", view.CostBreakdown, symbol),
		single("top-vehicles", KindBar, "Top 5 véhicules (km)", "Distance parcourue (km)",
			ToSeries(view.TopVehicles, nil, 0), format.KindDistance, ""),
		single("top-drivers", KindBar, "Top 5 conducteurs", "Nombre de trajets",
			ToSeries(view.TopDrivers, nil, MetricCount), format.KindInteger, ""),
	}
}

// Fuel charts
func Fuel(view *analytics.FuelView, symbol string) []Spec {
	return []Spec{
		single("monthly-cost", KindBar, "Dépenses carburant par mois", "Coût carburant",
			ToSeries(view.Monthly, nil, 0), format.KindCurrency, symbol),
		single("by-vehicle", KindBar, "Dépenses carburant par véhicule", "Coût carburant",
			ToSeries(view.ByVehicle, nil, 0), format.KindCurrency, symbol),
		rowShareChart("by-fuel-type", "Dépenses par type de carburant", view.ByFuelType, symbol),
	}
}

// Maintenance charts
func Maintenance(view *analytics.MaintenanceView, symbol string) []Spec {
	ranking := single("by-vehicle", KindBar, "Coûts de maintenance", "Coût d'entretien",
		ToSeries(view.ByVehicle, nil, 0), format.KindCurrency, symbol)
	ranking.Horizontal = true

	return []Spec{
		rowShareChart("by-category", "Coûts par catégorie d'entretien", view.ByCategory, symbol),
		single("monthly-cost", KindLine, "Coûts d'entretien par mois", "Coût d'entretien",
			ToSeries(view.Monthly, nil, 0), format.KindCurrency, symbol),
		ranking,
	}
}

// Fleet charts, as on the statistics page.
func Fleet(view *analytics.FleetView, symbol string) []Spec {
	types := single("vehicle-types", KindPie, "Répartition du parc", "Véhicules",
		ToSeries(view.VehicleTypes, nil, MetricCount), format.KindInteger, "")

	ranking := single("maintenance-ranking", KindBar, "Coûts de maintenance", "Coût d'entretien",
		ToSeries(view.MaintenanceRanking, nil, 0), format.KindCurrency, symbol)
	ranking.Horizontal = true

	return []Spec{
		types,
		fuelByType(view.FuelByType, symbol),
		ranking,
		single("activity", KindBar, "Taux d'activité", "Nombre de trajets",
			ToSeries(view.ActivityRanking, nil, MetricCount), format.KindInteger, ""),
		ownership(view.Ownership, symbol),
		litersByCategory(view.LitersByCategory),
	}
}

// Vehicle charts for the detail page.
func Vehicle(view *analytics.VehicleDetailView, symbol string) []Spec {
	return []Spec{
		shareChart("cost-breakdown", "Répartition des coûts", view.CostBreakdown, symbol),
		single("monthly-distance", KindLine, "Kilométrage mensuel", "Distance parcourue (km)",
			ToSeries(view.Monthly, nil, 0), format.KindDistance, ""),
		single("drivers", KindBar, "Distance par conducteur", "Distance parcourue (km)",
			ToSeries(view.Drivers, nil, 0), format.KindDistance, ""),
	}
}

// Driver charts for the history page.
func Driver(view *analytics.DriverDetailView) []Spec {
	return []Spec{
		single("monthly-distance", KindLine, "Kilométrage mensuel", "Distance parcourue (km)",
			ToSeries(view.Monthly, nil, 0), format.KindDistance, ""),
		single("vehicles", KindBar, "Distance par véhicule", "Distance parcourue (km)",
			ToSeries(view.Vehicles, nil, 0), format.KindDistance, ""),
	}
}

func shareChart(id, title string, shares []analytics.Share, symbol string) Spec {
	s := Series{Labels: make([]string, len(shares)), Values: make([]float64, len(shares))}
	pct := make([]float64, len(shares))
	for i, sh := range shares {
		s.Labels[i] = sh.Label
		s.Values[i] = sh.Value
		pct[i] = sh.Percentage
	}
	spec := single(id, KindDoughnut, title, title, s, format.KindCurrency, symbol)
	spec.Datasets[0].Tooltips = shareTooltips(s.Labels, s.Values, pct, symbol)
	return spec
}

func rowShareChart(id, title string, rows []analytics.Row, symbol string) Spec {
	s := ToSeries(rows, nil, 0)
	pct := make([]float64, len(rows))
	for i, r := range rows {
		pct[i] = r.PercentageOfTotal
	}
	spec := single(id, KindDoughnut, title, title, s, format.KindCurrency, symbol)
	spec.Datasets[0].Tooltips = shareTooltips(s.Labels, s.Values, pct, symbol)
	return spec
}

func litersByCategory(series []analytics.CategorySeries) Spec {
	spec := Spec{
		ID:       "liters-by-category",
		Kind:     KindStackedBar,
		Title:    "Consommation de carburant (L/mois)",
		Labels:   monthLabels(),
		Datasets: make([]Dataset, 0, len(series)),
		Format:   format.KindVolume,
	}
	for i, cs := range series {
		values := ToSeries(cs.Monthly, nil, 0).Values
		spec.Datasets = append(spec.Datasets, Dataset{
			Label:    cs.Category,
			Values:   values,
			Colors:   []string{palette[i%len(palette)]},
			Tooltips: tooltips(cs.Category, values, spec),
		})
	}
	return spec
}

func fuelByType(series []analytics.FuelTypeSeries, symbol string) Spec {
	spec := Spec{
		ID:       "fuel-by-type",
		Kind:     KindStackedBar,
		Title:    "Dépenses carburant mensuelles par type",
		Labels:   monthLabels(),
		Datasets: make([]Dataset, 0, len(series)),
		Format:   format.KindCurrency,
		Symbol:   symbol,
	}
	for i, fs := range series {
		values := ToSeries(fs.Monthly, nil, 0).Values
		spec.Datasets = append(spec.Datasets, Dataset{
			Label:    fs.FuelType,
			Values:   values,
			Colors:   []string{palette[i%len(palette)]},
			Tooltips: tooltips(fs.FuelType, values, spec),
		})
	}
	return spec
}

func ownership(costs []analytics.OwnershipCost, symbol string) Spec {
	spec := Spec{
		ID:     "ownership",
		Kind:   KindStackedBar,
		Title:  "Coût total de possession",
		Labels: make([]string, len(costs)),
		Format: format.KindCurrency,
		Symbol: symbol,
	}
	fuel := make([]float64, len(costs))
	maintenance := make([]float64, len(costs))
	for i, c := range costs {
		spec.Labels[i] = c.Label
		fuel[i] = c.Fuel
		maintenance[i] = c.Maintenance
	}
	spec.Datasets = []Dataset{
		{Label: analytics.ShareFuel, Values: fuel, Colors: []string{palette[0]}, Tooltips: tooltips(analytics.ShareFuel, fuel, spec)},
		{Label: analytics.ShareMaintenance, Values: maintenance, Colors: []string{palette[2]}, Tooltips: tooltips(analytics.ShareMaintenance, maintenance, spec)},
	}
	return spec
}

func tooltips(label string, values []float64, spec Spec) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = label + ": " + spec.Tick(v)
	}
	return out
}

func monthLabels() []string {
	out := make([]string, 12)
	for m := time.January; m <= time.December; m++ {
		out[m-1] = analytics.MonthShortLabel(m)
	}
	return out
}
