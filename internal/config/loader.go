// loader.go owns the configuration loading lifecycle: UTC enforcement,
// dotenv overlay, envconfig processing, build metadata, and validation.
// Any failure aborts startup; a half-configured process never serves.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError reports which loading phase failed so startup logs point at
// the right place (a bad env value vs a violated validation rule).
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadConfig reads, defaults, and validates the full configuration. It is
// called exactly once, from main, before any other component is built.
func LoadConfig() (*Config, error) {
	// All timestamps in the system are UTC; pinning the process zone keeps
	// time.Now() consistent with what gets persisted.
	time.Local = time.UTC

	// .env is a local-development convenience. Real environments set actual
	// env vars, which godotenv never overrides; a missing file is fine.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}
