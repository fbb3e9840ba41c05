package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the service configuration. Keys not modelled here remain
// reachable through the Get* accessors.
type Config struct {
	App        AppConfig        `koanf:"app" json:"app" yaml:"app"`
	Server     ServerConfig     `koanf:"server" json:"server" yaml:"server"`
	Log        LogConfig        `koanf:"log" json:"log" yaml:"log"`
	Validation ValidationConfig `koanf:"validation" json:"validation" yaml:"validation"`

	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability"`

	k *koanf.Koanf `json:"-" yaml:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string     `koanf:"name" json:"name" yaml:"name"`
	Version string     `koanf:"version" json:"version" yaml:"version"`
	Env     string     `koanf:"env" json:"env" yaml:"env"`
	Debug   bool       `koanf:"debug" json:"debug" yaml:"debug"`
	Rate    RateConfig `koanf:"rate" json:"rate" yaml:"rate"`
}

// RateConfig holds the token bucket for the rate limiting middleware.
// A zero limit disables rate limiting.
type RateConfig struct {
	Limit int `koanf:"limit" json:"limit" yaml:"limit"`
	Burst int `koanf:"burst" json:"burst" yaml:"burst"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string        `koanf:"host" json:"host" yaml:"host"`
	Port      int           `koanf:"port" json:"port" yaml:"port"`
	Timeout   TimeoutConfig `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Path      PathConfig    `koanf:"path" json:"path" yaml:"path"`
	BodyLimit string        `koanf:"bodylimit" json:"bodylimit" yaml:"bodylimit"`
}

// TimeoutConfig holds server timeouts.
type TimeoutConfig struct {
	Read     time.Duration `koanf:"read" json:"read" yaml:"read"`
	Write    time.Duration `koanf:"write" json:"write" yaml:"write"`
	Idle     time.Duration `koanf:"idle" json:"idle" yaml:"idle"`
	Shutdown time.Duration `koanf:"shutdown" json:"shutdown" yaml:"shutdown"`
}

// PathConfig holds URL path settings.
type PathConfig struct {
	Base   string `koanf:"base" json:"base" yaml:"base"`
	Health string `koanf:"health" json:"health" yaml:"health"`
	Ready  string `koanf:"ready" json:"ready" yaml:"ready"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// ValidationConfig holds the process-wide parameter validation policy.
type ValidationConfig struct {
	// BlankNone makes empty text count as None for Optional parameters.
	BlankNone bool `koanf:"blanknone" json:"blanknone" yaml:"blanknone"`
	// CollectAll reports every failing parameter instead of the first.
	CollectAll bool `koanf:"collectall" json:"collectall" yaml:"collectall"`
	// MultipartMemory is the number of bytes of a multipart body kept in
	// memory before file parts spill to disk.
	MultipartMemory int64 `koanf:"multipartmemory" json:"multipartmemory" yaml:"multipartmemory"`
}

// ObservabilityConfig holds OpenTelemetry export settings.
type ObservabilityConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`
	// Endpoint is "stdout" or the collector address. HTTP endpoints are
	// host:port or a URL, gRPC endpoints host:port.
	Endpoint   string            `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol   string            `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure   bool              `koanf:"insecure" json:"insecure" yaml:"insecure"`
	Headers    map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
	SampleRate float64           `koanf:"samplerate" json:"samplerate" yaml:"samplerate"`
	Metrics    bool              `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Interval   time.Duration     `koanf:"interval" json:"interval" yaml:"interval"`
}
