package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays COMMITLOG_* environment variables onto cfg.
// Values that fail to parse are ignored.
func FromEnv(cfg *Config) {
	if v := os.Getenv("COMMITLOG_HTTP_ADDRESS"); v != "" {
		cfg.Server.HTTPAddress = v
	}
	if v, ok := os.LookupEnv("COMMITLOG_GRPC_ADDRESS"); ok {
		cfg.Server.GRPCAddress = v
	}
	if v := os.Getenv("COMMITLOG_MAX_RECORD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxRecordBytes = n
		}
	}
	if v := os.Getenv("COMMITLOG_STORAGE_ENGINE"); v != "" {
		cfg.Storage.Engine = v
	}
	if v := os.Getenv("COMMITLOG_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("COMMITLOG_FSYNC"); v != "" {
		cfg.Storage.Fsync = v
	}
	if v := os.Getenv("COMMITLOG_FSYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Storage.FsyncInterval = d
		}
	}
	if v := os.Getenv("COMMITLOG_AUTH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Auth.Enabled = b
		}
	}
	if v := os.Getenv("COMMITLOG_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("COMMITLOG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("COMMITLOG_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("COMMITLOG_TELEMETRY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Enabled = b
		}
	}
}
