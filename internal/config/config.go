package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Sessions SessionConfig  `yaml:"sessions"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// UnmarshalYAML parses idle_timeout from a duration string such as "24h".
// yaml.v3 has no native time.Duration support.
func (s *SessionConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		IdleTimeout string `yaml:"idle_timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw.IdleTimeout) == "" {
		return nil
	}
	d, err := time.ParseDuration(raw.IdleTimeout)
	if err != nil {
		return fmt.Errorf("parsing idle_timeout: %w", err)
	}
	s.IdleTimeout = d
	return nil
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

const (
	defaultAddr        = ":8000"
	defaultIdleTimeout = 24 * time.Hour
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Database.Driver) == "" {
		cfg.Database.Driver = "sqlite"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = defaultAddr
	}
	if cfg.Sessions.IdleTimeout <= 0 {
		cfg.Sessions.IdleTimeout = defaultIdleTimeout
	}
}

// applyEnv lets deployments override the DSN and tracing endpoint without
// editing the config file. Secrets stay out of yaml.
func applyEnv(cfg *Config) {
	if dsn := os.Getenv("WORLDWEAVER_DB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if driver := os.Getenv("WORLDWEAVER_DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if endpoint := os.Getenv("WORLDWEAVER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Tracing.Endpoint = endpoint
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}
	return nil
}
