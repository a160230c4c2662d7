// Package config defines the Routecast configuration, loaded once at startup
// and immutable afterwards. Values come from the OS environment, with a
// .env file as a local-development fallback; a missing required value or an
// invalid format aborts startup.
package config

import (
	"time"

	"routecast/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type used
// throughout configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration. Components receive only the subset
// they need (the route service gets RouteConfig, not the whole struct).
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev staging prod"`
	Service     string `envconfig:"OTEL_SERVICE_NAME" default:"routecast-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Providers     ProviderConfig
	Route         RouteConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server and CORS configuration.
type ServerConfig struct {
	Port               string   `envconfig:"PORT" default:"8080"`
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`     // Fail fast when pool exhausted
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"` // Detect dead connections during failover
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// DispatchQueueURL is the SQS queue that receives severe-weather dispatch
	// messages. Empty disables dispatch publishing (local development).
	DispatchQueueURL string `envconfig:"SQS_DISPATCH_QUEUE" validate:"omitempty,url"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ProviderConfig holds credentials and settings for the upstream data providers
// (geocoding, routing, weather, places, AI summaries).
type ProviderConfig struct {
	MapboxToken SecretString `envconfig:"MAPBOX_TOKEN" validate:"required"`

	// NOAAUserAgent identifies this service to the National Weather Service API,
	// which requires a contact-bearing User-Agent header.
	NOAAUserAgent string `envconfig:"NOAA_USER_AGENT" default:"Routecast/1.0 (contact@routecast.app)"`

	// GooglePlacesKey enables rest-stop discovery. Empty disables it.
	GooglePlacesKey SecretString `envconfig:"GOOGLE_PLACES_API_KEY"`

	// OpenAIKey enables AI route summaries. Empty falls back to a static summary.
	OpenAIKey   SecretString `envconfig:"OPENAI_API_KEY"`
	OpenAIModel string       `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`

	Timeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`
}

// RouteConfig holds route analysis tuning parameters.
type RouteConfig struct {
	// WaypointIntervalMiles controls how often weather is sampled along a route.
	WaypointIntervalMiles float64 `envconfig:"WAYPOINT_INTERVAL_MILES" default:"50" validate:"gt=0"`
}

// ObservabilityConfig holds telemetry and monitoring settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Routecast"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
