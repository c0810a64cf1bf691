package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/fleet-analytics/internal/analytics"
	"github.com/richxcame/fleet-analytics/internal/period"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/eventbus"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"github.com/richxcame/fleet-analytics/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "fleet-analytics/report"

// Kind is a report type
type Kind string

const (
	KindFuel        Kind = "fuel"
	KindMaintenance Kind = "maintenance"
	KindFleet       Kind = "fleet"
)

// Format is an output file format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

var kindAliases = map[string]Kind{
	"fuel":        KindFuel,
	"carburant":   KindFuel,
	"maintenance": KindMaintenance,
	"entretien":   KindMaintenance,
	"fleet":       KindFleet,
	"parc":        KindFleet,
	"parc-auto":   KindFleet,
}

var kindSlugs = map[Kind]string{
	KindFuel:        "carburant",
	KindMaintenance: "entretien",
	KindFleet:       "parc-auto",
}

var kindTitles = map[Kind]string{
	KindFuel:        "Rapport carburant",
	KindMaintenance: "Rapport d'entretien",
	KindFleet:       "Rapport du parc automobile",
}

var contentTypes = map[Format]string{
	FormatPDF:  "application/pdf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

var reportsGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reports_generated_total",
		Help: "Reports generated by kind, format and outcome",
	},
	[]string{"kind", "format", "status"},
)

// ParseKind accepts the English kind names and their French slugs.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", common.NewBadRequestError(fmt.Sprintf("unknown report kind %q", s), nil)
}

// ParseFormat defaults to PDF.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", common.NewBadRequestError(fmt.Sprintf("unknown report format %q", s), nil)
}

// Filename is rapport-<slug>-<YYYY-MM-DD>.<ext>, dated on generation.
func Filename(kind Kind, f Format, at time.Time) string {
	return fmt.Sprintf("rapport-%s-%s.%s", kindSlugs[kind], at.Format("2006-01-02"), f)
}

// ViewSource computes the views a report is built from
type ViewSource interface {
	Now() time.Time
	Fuel(ctx context.Context, p period.Period) (*analytics.FuelView, error)
	Maintenance(ctx context.Context, p period.Period) (*analytics.MaintenanceView, error)
	Fleet(ctx context.Context, p period.Period) (*analytics.FleetView, error)
}

// Request describes one report to generate
type Request struct {
	Kind        Kind
	Format      Format
	Period      period.Period
	GeneratedBy string
}

// Result is a generated, archived report
type Result struct {
	Kind        Kind      `json:"kind"`
	Format      Format    `json:"format"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Location    string    `json:"location,omitempty"`
	Period      string    `json:"period"`
	Pages       int       `json:"pages,omitempty"`
	SizeBytes   int       `json:"size_bytes"`
	GeneratedAt time.Time `json:"generated_at"`
	Data        []byte    `json:"-"`
}

// Generator runs the full report pipeline
type Generator struct {
	views     ViewSource
	composer  *Composer
	pdf       *PDFRenderer
	archive   Archive
	publisher eventbus.Publisher
	symbol    string
}

// NewGenerator creates a generator. archive and publisher may be nil.
func NewGenerator(views ViewSource, composer *Composer, pdf *PDFRenderer, archive Archive, publisher eventbus.Publisher, symbol string) *Generator {
	return &Generator{
		views:     views,
		composer:  composer,
		pdf:       pdf,
		archive:   archive,
		publisher: publisher,
		symbol:    symbol,
	}
}

// Generate loads the view, composes, renders, archives and announces a report.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	var result *Result
	attrs := []attribute.KeyValue{
		tracing.ReportKindKey.String(string(req.Kind)),
		tracing.ReportFormatKey.String(string(req.Format)),
		tracing.PeriodKindKey.String(string(req.Period.Kind)),
	}
	err := tracing.TraceCompute(ctx, tracerName, "report.generate", attrs, func(ctx context.Context) error {
		var err error
		result, err = g.generate(ctx, req)
		return err
	})
	if err != nil {
		reportsGenerated.WithLabelValues(string(req.Kind), string(req.Format), "error").Inc()
		return nil, err
	}
	reportsGenerated.WithLabelValues(string(req.Kind), string(req.Format), "ok").Inc()
	return result, nil
}

func (g *Generator) generate(ctx context.Context, req Request) (*Result, error) {
	sections, err := g.sections(ctx, req)
	if err != nil {
		return nil, err
	}

	now := g.views.Now()
	header := Header{
		Title:       kindTitles[req.Kind],
		Subtitle:    "Période : " + req.Period.Label(),
		GeneratedAt: now,
		Logo:        g.pdf != nil && g.pdf.HasLogo(),
	}
	doc := g.composer.Compose(header, sections)

	result := &Result{
		Kind:        req.Kind,
		Format:      req.Format,
		Filename:    Filename(req.Kind, req.Format, now),
		ContentType: contentTypes[req.Format],
		Period:      req.Period.Label(),
		GeneratedAt: now,
	}

	switch req.Format {
	case FormatXLSX:
		buf, err := ExportWorkbook(doc)
		if err != nil {
			return nil, err
		}
		result.Data = buf.Bytes()
	default:
		if g.pdf == nil {
			return nil, fmt.Errorf("pdf renderer not configured")
		}
		var buf bytes.Buffer
		if err := g.pdf.Render(doc, &buf); err != nil {
			return nil, err
		}
		result.Data = buf.Bytes()
		result.Pages = doc.Pages
	}
	result.SizeBytes = len(result.Data)

	if g.archive != nil {
		location, err := g.archive.Store(ctx, result.Filename, result.ContentType, result.Data)
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", result.Filename, err)
		}
		result.Location = location
	}

	g.announce(ctx, result, req.GeneratedBy)
	logger.InfoContext(ctx, "report generated",
		zap.String("kind", string(result.Kind)),
		zap.String("format", string(result.Format)),
		zap.String("filename", result.Filename),
		zap.Int("size_bytes", result.SizeBytes),
	)
	return result, nil
}

func (g *Generator) sections(ctx context.Context, req Request) ([]SectionSpec, error) {
	switch req.Kind {
	case KindFuel:
		v, err := g.views.Fuel(ctx, req.Period)
		if err != nil {
			return nil, err
		}
		return FuelSections(v, g.symbol), nil
	case KindMaintenance:
		v, err := g.views.Maintenance(ctx, req.Period)
		if err != nil {
			return nil, err
		}
		return MaintenanceSections(v, g.symbol), nil
	case KindFleet:
		v, err := g.views.Fleet(ctx, req.Period)
		if err != nil {
			return nil, err
		}
		return FleetSections(v, g.symbol), nil
	}
	return nil, common.NewBadRequestError(fmt.Sprintf("unknown report kind %q", req.Kind), nil)
}

// announce publishes reports.generated. Failures are logged, never returned.
func (g *Generator) announce(ctx context.Context, r *Result, by string) {
	if g.publisher == nil {
		return
	}
	event, err := eventbus.NewEvent(eventbus.SubjectReportGenerated, "report-generator", eventbus.ReportGeneratedData{
		Kind:        string(r.Kind),
		Format:      string(r.Format),
		Filename:    r.Filename,
		Location:    r.Location,
		Period:      r.Period,
		SizeBytes:   r.SizeBytes,
		Pages:       r.Pages,
		GeneratedBy: by,
		GeneratedAt: r.GeneratedAt,
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to build report event", zap.Error(err))
		return
	}
	if err := g.publisher.Publish(ctx, eventbus.SubjectReportGenerated, event); err != nil {
		logger.WarnContext(ctx, "failed to publish report event", zap.Error(err))
	}
}
