package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/richxcame/fleet-analytics/internal/analytics"
	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/period"
	"github.com/richxcame/fleet-analytics/internal/report"
	"github.com/richxcame/fleet-analytics/pkg/config"
	"github.com/richxcame/fleet-analytics/pkg/httpclient"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"go.uber.org/zap"
)

const serviceName = "fleet-reports"

// options are the command line arguments of one generation
type options struct {
	kind   report.Kind
	format report.Format
	period period.Period
	outDir string
	s3     bool
}

func parseOptions(args []string, now time.Time, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	kind := fs.String("kind", "fuel", "report kind: fuel|maintenance|fleet")
	periodKind := fs.String("period", "", "period: day|month|quarter|year|range (default month, year for fleet)")
	start := fs.String("start", "", "start date YYYY-MM-DD, anchors calendar periods")
	end := fs.String("end", "", "end date YYYY-MM-DD, required for a range")
	formatName := fs.String("format", "pdf", "output format: pdf|xlsx")
	outDir := fs.String("out", "", "output directory (default REPORTS_OUTPUT_DIR)")
	s3 := fs.Bool("s3", false, "archive to the configured S3 bucket instead of -out")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	k, err := report.ParseKind(*kind)
	if err != nil {
		return nil, err
	}
	f, err := report.ParseFormat(*formatName)
	if err != nil {
		return nil, err
	}

	pk := *periodKind
	if pk == "" {
		pk = string(period.KindMonth)
		if k == report.KindFleet {
			pk = string(period.KindYear)
		}
		if *end != "" {
			pk = string(period.KindRange)
		}
	}
	p, err := period.Parse(pk, *start, *end, now)
	if err != nil {
		return nil, err
	}

	return &options{kind: k, format: f, period: p, outDir: *outDir, s3: *s3}, nil
}

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Server.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts, err := parseOptions(os.Args[1:], time.Now(), os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clientOpts := []httpclient.Option{httpclient.WithReadRetry(cfg.Fleet.MaxRetries)}
	if cfg.Fleet.ServiceToken != "" {
		clientOpts = append(clientOpts, httpclient.WithBearerToken(cfg.Fleet.ServiceToken))
	}
	repo := fleet.NewRepository(httpclient.NewClient(cfg.Fleet.BaseURL, cfg.Fleet.Timeout(), clientOpts...), cfg.Resilience.CircuitBreaker)
	views := analytics.NewService(fleet.NewLoader(repo, nil), nil, 0, nil)

	var archive report.Archive
	if opts.s3 {
		cfg.Reports.Archive = "s3"
		archive, err = report.NewArchive(ctx, cfg.Reports)
		if err != nil {
			logger.Fatal("Failed to initialize S3 archive", zap.Error(err))
		}
	} else {
		dir := opts.outDir
		if dir == "" {
			dir = cfg.Reports.OutputDir
		}
		archive = report.NewLocalArchive(dir)
	}

	generator := report.NewGenerator(
		views,
		report.NewComposer(report.DefaultLayout, report.FPDFMeasure()),
		report.NewPDFRenderer(report.DefaultLayout, report.LoadLogo(cfg.Reports.LogoPath)),
		archive,
		nil,
		cfg.Reports.CurrencySymbol,
	)

	result, err := generator.Generate(ctx, report.Request{
		Kind:        opts.kind,
		Format:      opts.format,
		Period:      opts.period,
		GeneratedBy: "cli",
	})
	if err != nil {
		logger.Fatal("Report generation failed", zap.Error(err))
	}

	location := result.Location
	if abs, err := filepath.Abs(location); err == nil && !opts.s3 {
		location = abs
	}
	fmt.Printf("%s (%s, %s) -> %s\n", result.Filename, result.Period, humanize.Bytes(uint64(result.SizeBytes)), location)
}
