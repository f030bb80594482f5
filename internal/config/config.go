// Package config loads the backtestvault configuration from YAML with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for backtestvault.
type Config struct {
	Storage Storage `yaml:"storage"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
	Tracing Tracing `yaml:"tracing"`
	Results Results `yaml:"results"`
}

// Storage holds paths for data persistence. DataDir is the program-data
// root under which archives are written.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	ExportDir  string `yaml:"export_dir"`
}

// Server holds network listener configuration.
type Server struct {
	Host     string `yaml:"host"`
	GRPCPort int    `yaml:"grpc_port"`
	HTTPPort int    `yaml:"http_port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Tracing configures OpenTelemetry span export.
type Tracing struct {
	Enabled     bool   `yaml:"enabled"`
	Pretty      bool   `yaml:"pretty"`
	ServiceName string `yaml:"service_name"`
}

// Results holds defaults applied to imported runs.
type Results struct {
	Timezone        string  `yaml:"timezone"`
	AccountCurrency string  `yaml:"account_currency"`
	InitialCapital  float64 `yaml:"initial_capital"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, then applies environment variable overrides and defaults.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKTESTVAULT_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("EXPORT_DIR"); v != "" {
		cfg.Storage.ExportDir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("GRPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.GRPCPort = port
		}
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = port
		}
	}

	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.Tracing.Enabled = on
		}
	}

	if v := os.Getenv("RESULTS_TIMEZONE"); v != "" {
		cfg.Results.Timezone = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = defaultDataDir()
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = filepath.Join(cfg.Storage.DataDir, "backtestvault.db")
	}
	if cfg.Storage.ExportDir == "" {
		cfg.Storage.ExportDir = filepath.Join(cfg.Storage.DataDir, "Exports")
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = 9090
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "backtestvault"
	}
	if cfg.Results.Timezone == "" {
		cfg.Results.Timezone = "Local"
	}
	if cfg.Results.AccountCurrency == "" {
		cfg.Results.AccountCurrency = "USD"
	}
	if cfg.Results.InitialCapital == 0 {
		cfg.Results.InitialCapital = 100000
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "backtestvault")
	}
	return "data"
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("server.grpc_port %d out of range", c.Server.GRPCPort))
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port %d out of range", c.Server.HTTPPort))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or text", c.Logging.Format))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("results.timezone: %w", err))
	}
	if c.Results.InitialCapital < 0 {
		errs = append(errs, errors.New("results.initial_capital must not be negative"))
	}
	return errors.Join(errs...)
}

// Location returns the time zone chart timestamps are converted to.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Results.Timezone)
}

// HTTPAddr returns the host:port of the REST and metrics listener, or ""
// when it is disabled.
func (c *Config) HTTPAddr() string {
	if c.Server.HTTPPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// GRPCAddr returns the host:port the gRPC server listens on.
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
