package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/fleet-analytics/internal/alerts"
	"github.com/richxcame/fleet-analytics/internal/analytics"
	"github.com/richxcame/fleet-analytics/internal/chart"
	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/internal/refresh"
	"github.com/richxcame/fleet-analytics/internal/report"
	"github.com/richxcame/fleet-analytics/pkg/cache"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/config"
	"github.com/richxcame/fleet-analytics/pkg/errors"
	"github.com/richxcame/fleet-analytics/pkg/eventbus"
	"github.com/richxcame/fleet-analytics/pkg/httpclient"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"github.com/richxcame/fleet-analytics/pkg/middleware"
	redisclient "github.com/richxcame/fleet-analytics/pkg/redis"
	"github.com/richxcame/fleet-analytics/pkg/tracing"
	"github.com/richxcame/fleet-analytics/pkg/websocket"
	"go.uber.org/zap"
)

const (
	serviceName = "fleet-analytics"
	version     = "1.0.0"
)

func main() {
	// Set default port for the analytics service if not set
	if os.Getenv("PORT") == "" {
		os.Setenv("PORT", "8091")
	}
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting fleet analytics service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("fleet_api", cfg.Fleet.BaseURL),
	)

	// Initialize Sentry for error tracking
	sentryConfig := errors.DefaultSentryConfig()
	sentryConfig.ServerName = serviceName
	sentryConfig.Release = version
	if err := errors.InitSentry(sentryConfig); err != nil {
		logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	// Initialize OpenTelemetry tracer
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.Config{
			ServiceName:    serviceName,
			ServiceVersion: version,
			Environment:    cfg.Server.Environment,
			OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
			SampleRate:     cfg.Tracing.SampleRate,
			Enabled:        true,
			FleetBackend:   cfg.Fleet.BaseURL,
		}, logger.Get())
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Failed to shutdown tracer", zap.Error(err))
				}
			}()
			logger.Info("OpenTelemetry tracing initialized successfully")
		}
	}

	checks := make(map[string]common.Check)

	// Optional view cache and idempotency store
	var (
		viewCache   *cache.Manager
		viewTTL     time.Duration
		fleetWrites []gin.HandlerFunc
	)
	if cfg.Cache.Enabled || cfg.Server.Idempotency.Enabled {
		redisClient, err := redisclient.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Failed to connect to Redis, serving views uncached and writes without replay protection", zap.Error(err))
		} else {
			defer redisClient.Close()
			checks["redis"] = redisClient.Ping
			if cfg.Cache.Enabled {
				viewCache = cache.NewManager(redisClient)
				viewTTL = cfg.Cache.TTL()
				logger.Info("Connected to Redis view cache", zap.Duration("ttl", viewTTL))
			}
			if cfg.Server.Idempotency.Enabled {
				fleetWrites = append(fleetWrites, middleware.Idempotency(redisClient, cfg.Server.Idempotency.TTL))
			}
		}
	}

	// Optional event bus
	var (
		publisher eventbus.Publisher
		bus       *eventbus.Bus
	)
	if cfg.NATS.Enabled {
		busCfg := eventbus.DefaultConfig()
		busCfg.URL = cfg.NATS.URL
		busCfg.Name = serviceName
		busCfg.StreamName = cfg.NATS.StreamName
		bus, err = eventbus.New(busCfg)
		if err != nil {
			logger.Warn("Failed to connect to NATS, continuing without events", zap.Error(err))
			bus = nil
		} else {
			defer bus.Close()
			publisher = bus
			checks["nats"] = func(ctx context.Context) error {
				if !bus.Connected() {
					return fmt.Errorf("nats disconnected")
				}
				return nil
			}
		}
	}

	// Fleet backend
	clientOpts := []httpclient.Option{httpclient.WithReadRetry(cfg.Fleet.MaxRetries)}
	if cfg.Fleet.ServiceToken != "" {
		clientOpts = append(clientOpts, httpclient.WithBearerToken(cfg.Fleet.ServiceToken))
	}
	backend := httpclient.NewClient(cfg.Fleet.BaseURL, cfg.Fleet.Timeout(), clientOpts...)
	repo := fleet.NewRepository(backend, cfg.Resilience.CircuitBreaker)
	checks["fleet_backend"] = repo.Ping

	loader := fleet.NewLoader(repo, nil)
	var invalidator fleet.Invalidator
	var cacheForViews analytics.ViewCache
	if viewCache != nil {
		invalidator = viewCache
		cacheForViews = viewCache
	}
	analyticsService := analytics.NewService(loader, cacheForViews, viewTTL, nil)
	fleetService := fleet.NewService(repo, invalidator, publisher)

	// Live push
	hub := websocket.NewHub()
	go hub.Run(rootCtx)

	dashboardHolder := chart.NewHolder("dashboard")
	chartService := chart.NewService(analyticsService, cfg.Reports.CurrencySymbol, dashboardHolder)

	watcher := alerts.NewWatcher(repo, hub, publisher, nil)
	hub.SetGreeting(watcher.Greeting)

	// Reports
	archive, err := report.NewArchive(rootCtx, cfg.Reports)
	if err != nil {
		logger.Fatal("Failed to initialize report archive", zap.Error(err))
	}
	generator := report.NewGenerator(
		analyticsService,
		report.NewComposer(report.DefaultLayout, report.FPDFMeasure()),
		report.NewPDFRenderer(report.DefaultLayout, report.LoadLogo(cfg.Reports.LogoPath)),
		archive,
		publisher,
		cfg.Reports.CurrencySymbol,
	)

	// Refresh tasks
	alertsTask := refresh.NewTask("alerts", cfg.Alerts.PollInterval, watcher.Refresh)
	dashboardTask := refresh.NewTask("dashboard-charts", cfg.Alerts.DashboardRefresh, func(ctx context.Context) error {
		if err := chartService.RefreshDashboard(ctx); err != nil {
			return err
		}
		hub.SendToAll(websocket.NewMessage(websocket.TypeDashboard, gin.H{"generation": dashboardHolder.Generation()}))
		return nil
	})
	tasks := refresh.NewGroup(alertsTask, dashboardTask)
	if err := tasks.Start(rootCtx); err != nil {
		logger.Fatal("Failed to start refresh tasks", zap.Error(err))
	}
	if bus != nil {
		if err := watcher.OnRead(rootCtx, bus, alertsTask.Trigger); err != nil {
			logger.Warn("Failed to subscribe to alert read events", zap.Error(err))
		}
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithSentry()) // Custom recovery with Sentry
	router.Use(middleware.SentryMiddleware())   // Sentry integration
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestTimeout(&cfg.Timeout))
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.MaxBodySize(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Metrics(serviceName))

	// Add tracing middleware if enabled
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}

	// Add Sentry error handler (should be near the end of middleware chain)
	router.Use(middleware.ErrorHandler())

	// Health check endpoints
	router.GET("/healthz", common.LivenessProbe(serviceName, version))
	router.GET("/health/live", common.LivenessProbe(serviceName, version))
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, checks))
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/refresh/status", func(c *gin.Context) {
		common.SuccessResponse(c, tasks.Statuses())
	})

	// The socket authenticates with a token query parameter
	router.GET("/ws", func(c *gin.Context) {
		websocket.HandleWebSocket(c, hub, cfg.JWT.Secret)
	})

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		analytics.NewHandler(analyticsService).RegisterRoutes(api)
		chart.NewHandler(chartService).RegisterRoutes(api)
		report.NewHandler(generator).RegisterRoutes(api)
		alerts.NewHandler(watcher).RegisterRoutes(api)
		fleet.NewHandler(fleetService).RegisterRoutes(api, fleetWrites...)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	tasks.Stop()
	dashboardHolder.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
