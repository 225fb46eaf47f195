// Package config handles loading and validation of trainctl user configuration.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PersonalHealthTrain/train-container-library/internal/engine/backend"
	"github.com/PersonalHealthTrain/train-container-library/internal/platform/logger"
)

// SecretString is a string that is redacted when printed.
type SecretString string

func (s SecretString) String() string {
	return "[REDACTED]"
}

func (s SecretString) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// IsEmpty returns true if the secret string is empty.
func (s SecretString) IsEmpty() bool {
	return string(s) == ""
}

// Duration wraps time.Duration so YAML values can use the human-readable
// form ("250ms", "1s") as well as integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value at line %d", value.Line)
	}
	*d = Duration(n)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// RegistryConfig holds the registry endpoint and credentials used by
// login-backed pulls and pushes.
type RegistryConfig struct {
	Host     string       `yaml:"host"`
	Username string       `yaml:"username"`
	Password SecretString `yaml:"password"`
}

// Config holds user-level settings that persist across invocations.
type Config struct {
	Registry     RegistryConfig `yaml:"registry"`
	Engine       string         `yaml:"engine"`
	PollInterval Duration       `yaml:"poll_interval"`
}

const defaultPollInterval = 100 * time.Millisecond

func defaultConfig() *Config {
	return &Config{
		Engine:       backend.EngineAuto,
		PollInterval: Duration(defaultPollInterval),
	}
}

// Loader handles loading configuration from the file system.
type Loader struct {
	fs     FileSystem
	getenv func(string) string
}

// NewLoader creates a new Loader with the given file system and environment.
func NewLoader(fs FileSystem, getenv func(string) string) *Loader {
	return &Loader{fs: fs, getenv: getenv}
}

// Load reads user-level configuration from ~/.config/trainctl/config.yaml.
// If the file does not exist, default values are returned (not an error).
// Environment variables override file values.
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	log := logger.FromContext(ctx)
	cfg := defaultConfig()

	home, err := l.fs.UserHomeDir()
	if err != nil {
		// Cannot determine home directory; use defaults.
		l.applyEnvOverrides(cfg, log)
		return cfg, nil
	}

	path := filepath.Join(home, ".config", "trainctl", "config.yaml")
	data, err := l.fs.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case l.fs.IsNotExist(err):
		log.Debug("no config file, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	l.applyEnvOverrides(cfg, log)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets TRAINCTL_* variables win over file values, so
// credentials can be injected in CI without writing them to disk.
func (l *Loader) applyEnvOverrides(cfg *Config, log *slog.Logger) {
	if v := l.getenv("TRAINCTL_REGISTRY_HOST"); v != "" {
		cfg.Registry.Host = v
	}
	if v := l.getenv("TRAINCTL_REGISTRY_USERNAME"); v != "" {
		cfg.Registry.Username = v
	}
	if v := l.getenv("TRAINCTL_REGISTRY_PASSWORD"); v != "" {
		cfg.Registry.Password = SecretString(v)
	}
	if v := l.getenv("TRAINCTL_ENGINE"); v != "" {
		cfg.Engine = v
	}
	if v := l.getenv("TRAINCTL_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Error("ignoring invalid TRAINCTL_POLL_INTERVAL", "value", v, "error", err)
		} else {
			cfg.PollInterval = Duration(d)
		}
	}
}

// validate checks cross-field consistency and fills derived defaults.
func validate(cfg *Config) error {
	switch cfg.Engine {
	case backend.EngineAuto, backend.EngineDocker, backend.EngineCLI, "":
	default:
		return fmt.Errorf("unknown engine %q (valid: %s, %s, %s)",
			cfg.Engine, backend.EngineAuto, backend.EngineDocker, backend.EngineCLI)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}
	return nil
}
