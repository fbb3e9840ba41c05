package config

import (
	"fmt"
	"slices"

	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Observability exporters
const (
	ObservabilityStdout = "stdout"
	ProtocolHTTP        = "http"
	ProtocolGRPC        = "grpc"
)

// Validate checks cfg and returns the first problem as a *ConfigError.
func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if err := validateValidation(&cfg.Validation); err != nil {
		return fmt.Errorf("validation config: %w", err)
	}
	if err := validateObservability(&cfg.Observability); err != nil {
		return fmt.Errorf("observability config: %w", err)
	}
	return nil
}

func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name", "APP_NAME")
	}
	if cfg.Version == "" {
		return NewMissingFieldError("app.version", "APP_VERSION")
	}
	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction}
	if !slices.Contains(validEnvs, cfg.Env) {
		return NewInvalidFieldError("app.env", fmt.Sprintf("unknown environment %q", cfg.Env), validEnvs)
	}
	if cfg.Rate.Limit < 0 || cfg.Rate.Burst < 0 {
		return NewInvalidFieldError("app.rate", "limit and burst must not be negative", nil)
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return NewInvalidFieldError("server.port", fmt.Sprintf("port %d out of range 1-65535", cfg.Port), nil)
	}
	if cfg.Timeout.Read <= 0 {
		return NewInvalidFieldError("server.timeout.read", "must be positive", nil)
	}
	if cfg.Timeout.Write <= 0 {
		return NewInvalidFieldError("server.timeout.write", "must be positive", nil)
	}
	if cfg.BodyLimit != "" {
		if err := checkBodyLimit(cfg.BodyLimit); err != nil {
			return NewInvalidFieldError("server.bodylimit", err.Error(), nil)
		}
	}
	return nil
}

// checkBodyLimit rejects sizes echo's BodyLimit middleware would panic on.
func checkBodyLimit(limit string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid size %q", limit)
		}
	}()
	middleware.BodyLimit(limit)
	return nil
}

func validateLog(cfg *LogConfig) error {
	if cfg.Level == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(cfg.Level); err != nil {
		return NewInvalidFieldError("log.level", fmt.Sprintf("unknown level %q", cfg.Level),
			[]string{"trace", "debug", "info", "warn", "error"})
	}
	return nil
}

func validateValidation(cfg *ValidationConfig) error {
	if cfg.MultipartMemory <= 0 {
		return NewInvalidFieldError("validation.multipartmemory", "must be positive", nil)
	}
	return nil
}

func validateObservability(cfg *ObservabilityConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Endpoint == "" {
		return NewMissingFieldError("observability.endpoint", "OBSERVABILITY_ENDPOINT")
	}
	if cfg.Endpoint != ObservabilityStdout && cfg.Protocol != ProtocolHTTP && cfg.Protocol != ProtocolGRPC {
		return NewInvalidFieldError("observability.protocol", fmt.Sprintf("unknown protocol %q", cfg.Protocol),
			[]string{ProtocolHTTP, ProtocolGRPC})
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return NewInvalidFieldError("observability.samplerate", "must be between 0 and 1", nil)
	}
	if cfg.Metrics && cfg.Interval <= 0 {
		return NewInvalidFieldError("observability.interval", "must be positive", nil)
	}
	return nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == EnvDevelopment
}
