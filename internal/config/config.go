package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pebblestore "github.com/rmacdonaldsmith/commitlog-go/internal/storage/pebble"
)

// Storage engines.
const (
	EngineMemory = "memory"
	EnginePebble = "pebble"
)

var (
	// ErrEmptyHTTPAddress is returned when the HTTP listen address is empty
	ErrEmptyHTTPAddress = errors.New("http address cannot be empty")
	// ErrMissingDataDir is returned when the pebble engine has no data directory
	ErrMissingDataDir = errors.New("storage.dataDir is required for the pebble engine")
	// ErrMissingSecret is returned when auth is enabled without a signing secret
	ErrMissingSecret = errors.New("auth.secret is required when auth is enabled")
)

// Config is the top-level server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the network listeners.
type ServerConfig struct {
	// HTTPAddress is the JSON/HTTP listen address, e.g. ":8080".
	HTTPAddress string `yaml:"httpAddress"`
	// GRPCAddress is the gRPC listen address. Empty disables gRPC.
	GRPCAddress     string        `yaml:"grpcAddress"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// MaxRecordBytes caps the decoded record value accepted by both facades.
	MaxRecordBytes int64 `yaml:"maxRecordBytes"`
}

// StorageConfig selects and tunes the log engine.
type StorageConfig struct {
	// Engine is "memory" or "pebble".
	Engine        string        `yaml:"engine"`
	DataDir       string        `yaml:"dataDir"`
	Fsync         string        `yaml:"fsync"`
	FsyncInterval time.Duration `yaml:"fsyncInterval"`
}

// AuthConfig controls JWT authentication on the record endpoints.
type AuthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTTL"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Stdout      bool   `yaml:"stdout"`
	ServiceName string `yaml:"serviceName"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			HTTPAddress:     ":8080",
			GRPCAddress:     ":9090",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxRecordBytes:  1 << 20, // 1MB
		},
		Storage: StorageConfig{
			Engine:        EngineMemory,
			Fsync:         pebblestore.FsyncAlways.String(),
			FsyncInterval: 5 * time.Millisecond,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "commitlog",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SetDefaults fills zero-valued fields that a partial file or env overlay may
// have cleared.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = d.Server.IdleTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Server.MaxRecordBytes <= 0 {
		c.Server.MaxRecordBytes = d.Server.MaxRecordBytes
	}
	if c.Storage.Engine == "" {
		c.Storage.Engine = d.Storage.Engine
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = d.Auth.TokenTTL
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = d.Telemetry.ServiceName
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.Server.HTTPAddress == "" {
		return ErrEmptyHTTPAddress
	}

	switch c.Storage.Engine {
	case EngineMemory:
	case EnginePebble:
		if c.Storage.DataDir == "" {
			return ErrMissingDataDir
		}
		if _, err := pebblestore.ParseFsyncMode(c.Storage.Fsync); err != nil {
			return fmt.Errorf("invalid storage config: %w", err)
		}
	default:
		return fmt.Errorf("unknown storage engine %q", c.Storage.Engine)
	}

	if c.Auth.Enabled && c.Auth.Secret == "" {
		return ErrMissingSecret
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// PebbleOptions converts the storage section to pebblestore options.
func (s StorageConfig) PebbleOptions() (pebblestore.Options, error) {
	mode, err := pebblestore.ParseFsyncMode(s.Fsync)
	if err != nil {
		return pebblestore.Options{}, err
	}
	return pebblestore.Options{
		Dir:           s.DataDir,
		Fsync:         mode,
		FsyncInterval: s.FsyncInterval,
	}, nil
}
