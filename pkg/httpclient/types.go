package httpclient

import (
	"time"

	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

// Config holds client configuration
type Config struct {
	// ServerURL is the base URL of the commitlog HTTP API (e.g., "http://localhost:8080")
	ServerURL string

	// ClientID identifies this client when logging in. Only needed when the
	// server has authentication enabled.
	ClientID string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// SetDefaults sets reasonable default values for the config
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// AuthRequest represents a login request
type AuthRequest struct {
	ClientID string `json:"clientId"`
}

// AuthResponse represents a login response
type AuthResponse struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"clientId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ProduceRequest carries the record to append
type ProduceRequest struct {
	Record commitlog.Record `json:"record"`
}

// ProduceResponse carries the offset assigned to the appended record
type ProduceResponse struct {
	Offset uint64 `json:"offset"`
}

// ConsumeResponse carries a stored record
type ConsumeResponse struct {
	Record commitlog.Record `json:"record"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Healthy    bool   `json:"healthy"`
	LogHealthy bool   `json:"logHealthy"`
	Records    uint64 `json:"records"`
	Message    string `json:"message"`
}

// StatsResponse reports the size of the log
type StatsResponse struct {
	Records    uint64 `json:"records"`
	NextOffset uint64 `json:"nextOffset"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
