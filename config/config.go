package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load loads configuration from the working directory. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads configuration with priority, lowest first:
//  1. built-in defaults
//  2. config.yaml in dir
//  3. config.<app.env>.yaml in dir
//  4. environment variables (LOG_LEVEL maps to log.level)
//
// Missing YAML files are skipped.
func LoadFrom(dir string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadYAML(k, filepath.Join(dir, "config.yaml")); err != nil {
		return nil, err
	}

	// env may be set in config.yaml or in the environment
	env := k.String("app.env")
	if fromEnv := os.Getenv("APP_ENV"); fromEnv != "" {
		env = fromEnv
	}
	if env != "" {
		if err := loadYAML(k, filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))); err != nil {
			return nil, err
		}
	}

	if err := k.Load(envprovider.Provider("", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(s), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadYAML(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":       "go-params-service",
		"app.version":    "v1.0.0",
		"app.env":        EnvDevelopment,
		"app.debug":      false,
		"app.rate.limit": 100,
		"app.rate.burst": 200,

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.timeout.read":     "15s",
		"server.timeout.write":    "30s",
		"server.timeout.idle":     "60s",
		"server.timeout.shutdown": "10s",
		"server.path.base":        "",
		"server.path.health":      "/health",
		"server.path.ready":       "/ready",
		"server.bodylimit":        "10M",

		"log.level":  "info",
		"log.pretty": false,

		"validation.blanknone":       false,
		"validation.collectall":      false,
		"validation.multipartmemory": 32 << 20,

		"observability.enabled":    false,
		"observability.endpoint":   ObservabilityStdout,
		"observability.protocol":   ProtocolHTTP,
		"observability.insecure":   false,
		"observability.samplerate": 1.0,
		"observability.metrics":    true,
		"observability.interval":   "30s",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
