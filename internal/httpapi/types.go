package httpapi

import (
	"time"

	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

// Request/Response types for the HTTP API. Record values are []byte and
// therefore travel as base64 strings in JSON.

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

// ProduceRequest carries the record to append. Any offset in the record is
// ignored.
type ProduceRequest struct {
	Record *commitlog.Record `json:"record"`
}

// ProduceResponse carries the offset assigned to the appended record
type ProduceResponse struct {
	Offset uint64 `json:"offset"`
}

// ConsumeRequest is the body of the GET / compatibility route
type ConsumeRequest struct {
	Offset *uint64 `json:"offset"`
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
