package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Timeout    TimeoutConfig
	Fleet      FleetConfig
	Redis      RedisConfig
	Cache      CacheConfig
	NATS       NATSConfig
	JWT        JWTConfig
	Resilience ResilienceConfig
	Reports    ReportsConfig
	Alerts     AlertsConfig
	Tracing    TracingConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	Version      string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
	MaxBodyBytes int64
	Idempotency  IdempotencyConfig
}

// TimeoutConfig bounds how long a single API request may run
type TimeoutConfig struct {
	DefaultRequestTimeout int            // seconds
	RouteOverrides        map[string]int // "METHOD:/route/path" -> seconds
}

// IdempotencyConfig controls replay protection on fleet writes
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// FleetConfig points at the fleet REST backend that owns every record.
type FleetConfig struct {
	BaseURL        string
	TimeoutSeconds int
	ServiceToken   string
	MaxRetries     int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CacheConfig controls the optional view cache
type CacheConfig struct {
	Enabled    bool
	TTLSeconds int
}

// NATSConfig holds event bus configuration
type NATSConfig struct {
	Enabled    bool
	URL        string
	StreamName string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// ResilienceConfig groups runtime resilience controls
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig captures default and per-service breaker tuning
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	TimeoutSeconds   int
	IntervalSeconds  int
	ServiceOverrides map[string]CircuitBreakerSettings
}

// CircuitBreakerSettings overrides defaults for a specific upstream collection
type CircuitBreakerSettings struct {
	FailureThreshold int `json:"failure_threshold"`
	SuccessThreshold int `json:"success_threshold"`
	TimeoutSeconds   int `json:"timeout_seconds"`
	IntervalSeconds  int `json:"interval_seconds"`
}

// ReportsConfig drives document generation and archiving
type ReportsConfig struct {
	OutputDir      string
	LogoPath       string
	CurrencySymbol string
	Archive        string // local | s3
	S3Bucket       string
	S3Region       string
	S3Prefix       string
	S3AccessKey    string
	S3SecretKey    string
	S3Endpoint     string
}

// AlertsConfig holds the refresh cadence of the alert watcher and dashboard charts
type AlertsConfig struct {
	PollInterval     time.Duration
	DashboardRefresh time.Duration
}

// TracingConfig holds OTLP exporter settings
type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRate   float64
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			Version:      getEnv("SERVICE_VERSION", "1.0.0"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 30),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:4200"),
			MaxBodyBytes: int64(getEnvAsInt("MAX_BODY_BYTES", 1<<20)),
			Idempotency: IdempotencyConfig{
				Enabled: getEnvAsBool("IDEMPOTENCY_ENABLED", true),
				TTL:     getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
			},
		},
		Timeout: TimeoutConfig{
			DefaultRequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 30),
			RouteOverrides: map[string]int{
				"POST:/api/v1/reports/:kind": 120,
			},
		},
		Fleet: FleetConfig{
			BaseURL:        strings.TrimRight(getEnv("FLEET_API_URL", "http://localhost:3000/api"), "/"),
			TimeoutSeconds: getEnvAsInt("FLEET_API_TIMEOUT", 15),
			ServiceToken:   getEnv("FLEET_API_TOKEN", ""),
			MaxRetries:     getEnvAsInt("FLEET_API_MAX_RETRIES", 3),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled:    getEnvAsBool("CACHE_ENABLED", false),
			TTLSeconds: getEnvAsInt("CACHE_TTL_SECONDS", 30),
		},
		NATS: NATSConfig{
			Enabled:    getEnvAsBool("NATS_ENABLED", false),
			URL:        getEnv("NATS_URL", "nats://localhost:4222"),
			StreamName: getEnv("NATS_STREAM", "FLEET_EVENTS"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          getEnvAsBool("CB_ENABLED", true),
				FailureThreshold: getEnvAsInt("CB_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvAsInt("CB_SUCCESS_THRESHOLD", 1),
				TimeoutSeconds:   getEnvAsInt("CB_TIMEOUT_SECONDS", 30),
				IntervalSeconds:  getEnvAsInt("CB_INTERVAL_SECONDS", 60),
			},
		},
		Reports: ReportsConfig{
			OutputDir:      getEnv("REPORTS_OUTPUT_DIR", "./reports"),
			LogoPath:       getEnv("REPORTS_LOGO_PATH", "assets/logo.png"),
			CurrencySymbol: getEnv("REPORTS_CURRENCY", "Ar"),
			Archive:        strings.ToLower(getEnv("REPORTS_ARCHIVE", "local")),
			S3Bucket:       getEnv("REPORTS_S3_BUCKET", ""),
			S3Region:       getEnv("REPORTS_S3_REGION", "us-east-1"),
			S3Prefix:       getEnv("REPORTS_S3_PREFIX", "reports/"),
			S3AccessKey:    getEnv("REPORTS_S3_ACCESS_KEY", ""),
			S3SecretKey:    getEnv("REPORTS_S3_SECRET_KEY", ""),
			S3Endpoint:     getEnv("REPORTS_S3_ENDPOINT", ""),
		},
		Alerts: AlertsConfig{
			PollInterval:     getEnvAsDuration("ALERTS_POLL_INTERVAL", 30*time.Second),
			DashboardRefresh: getEnvAsDuration("DASHBOARD_REFRESH_INTERVAL", 5*time.Second),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvAsFloat("OTEL_SAMPLE_RATE", 1.0),
		},
	}

	if breakerOverrides := getEnv("CB_SERVICE_OVERRIDES", ""); breakerOverrides != "" {
		var serviceConfig map[string]CircuitBreakerSettings
		if err := json.Unmarshal([]byte(breakerOverrides), &serviceConfig); err != nil {
			return nil, fmt.Errorf("invalid CB_SERVICE_OVERRIDES value: %w", err)
		}
		cfg.Resilience.CircuitBreaker.ServiceOverrides = serviceConfig
	}

	if routeTimeouts := getEnv("REQUEST_TIMEOUT_OVERRIDES", ""); routeTimeouts != "" {
		var overrides map[string]int
		if err := json.Unmarshal([]byte(routeTimeouts), &overrides); err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT_OVERRIDES value: %w", err)
		}
		for route, seconds := range overrides {
			cfg.Timeout.RouteOverrides[route] = seconds
		}
	}

	if cfg.Reports.Archive != "local" && cfg.Reports.Archive != "s3" {
		return nil, fmt.Errorf("invalid REPORTS_ARCHIVE value %q: want local or s3", cfg.Reports.Archive)
	}
	if cfg.Reports.Archive == "s3" && cfg.Reports.S3Bucket == "" {
		return nil, fmt.Errorf("REPORTS_S3_BUCKET is required when REPORTS_ARCHIVE=s3")
	}

	if cfg.Fleet.TimeoutSeconds <= 0 {
		cfg.Fleet.TimeoutSeconds = 15
	}
	if cfg.Timeout.DefaultRequestTimeout <= 0 {
		cfg.Timeout.DefaultRequestTimeout = 30
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.Idempotency.TTL <= 0 {
		cfg.Server.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.Alerts.PollInterval <= 0 {
		cfg.Alerts.PollInterval = 30 * time.Second
	}
	if cfg.Alerts.DashboardRefresh <= 0 {
		cfg.Alerts.DashboardRefresh = 5 * time.Second
	}

	return cfg, nil
}

// SettingsFor returns effective breaker settings for a specific upstream collection
func (c CircuitBreakerConfig) SettingsFor(service string) CircuitBreakerSettings {
	settings := CircuitBreakerSettings{
		FailureThreshold: c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		TimeoutSeconds:   c.TimeoutSeconds,
		IntervalSeconds:  c.IntervalSeconds,
	}

	if override, ok := c.ServiceOverrides[service]; ok {
		if override.FailureThreshold > 0 {
			settings.FailureThreshold = override.FailureThreshold
		}
		if override.SuccessThreshold > 0 {
			settings.SuccessThreshold = override.SuccessThreshold
		}
		if override.TimeoutSeconds > 0 {
			settings.TimeoutSeconds = override.TimeoutSeconds
		}
		if override.IntervalSeconds > 0 {
			settings.IntervalSeconds = override.IntervalSeconds
		}
	}

	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 1
	}
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.TimeoutSeconds <= 0 {
		settings.TimeoutSeconds = 30
	}
	if settings.IntervalSeconds <= 0 {
		settings.IntervalSeconds = 60
	}

	return settings
}

// TimeoutForRoute returns the request timeout for a method and gin route
// pattern, falling back to the default when no positive override exists.
func (c TimeoutConfig) TimeoutForRoute(method, route string) time.Duration {
	if seconds, ok := c.RouteOverrides[method+":"+route]; ok && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return time.Duration(c.DefaultRequestTimeout) * time.Second
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Timeout returns the per-request timeout for backend calls
func (c FleetConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TTL returns the view cache lifetime
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
