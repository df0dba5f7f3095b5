package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rmacdonaldsmith/commitlog-go/internal/logging"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

var (
	// ErrMissingRecord is returned when a produce request has no record
	ErrMissingRecord = errors.New("record is required")
	// ErrMissingOffset is returned when a consume request has no offset
	ErrMissingOffset = errors.New("offset is required")
	// ErrInvalidOffset is returned when an offset is not an unsigned integer
	ErrInvalidOffset = errors.New("offset must be a non-negative integer")
)

const (
	// envelopeBytes is the allowance for JSON framing around a base64 value.
	envelopeBytes = 1 << 10
	// maxConsumeBodyBytes caps the legacy consume body, which only carries an offset.
	maxConsumeBodyBytes = 1 << 10
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	log            commitlog.CommitLog
	jwtAuth        *JWTAuth
	logger         logrus.FieldLogger
	maxRecordBytes int64
}

// NewHandlers creates a new handlers instance
func NewHandlers(log commitlog.CommitLog, jwtAuth *JWTAuth, logger logrus.FieldLogger, maxRecordBytes int64) *Handlers {
	return &Handlers{
		log:            log,
		jwtAuth:        jwtAuth,
		logger:         logger,
		maxRecordBytes: maxRecordBytes,
	}
}

// Auth endpoints

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := h.validateJSON(r); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validateAuthRequest(&req); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, expiresAt, err := h.jwtAuth.GenerateToken(req.ClientID)
	if err != nil {
		h.logger.WithError(err).Error("failed to generate token")
		h.writeError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, AuthResponse{
		Token:     token,
		ClientID:  req.ClientID,
		ExpiresAt: expiresAt,
	}, http.StatusOK)
}

// Record endpoints

// ProduceRecord handles POST /api/v1/records
func (h *Handlers) ProduceRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.validateJSON(r); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.produce(w, r, http.StatusCreated)
}

// ConsumeRecord handles GET /api/v1/records/{offset}
func (h *Handlers) ConsumeRecord(w http.ResponseWriter, r *http.Request) {
	raw := h.parsePathParam(r.URL.Path, "/api/v1/records/")
	if raw == "" {
		h.writeError(w, ErrMissingOffset.Error(), http.StatusBadRequest)
		return
	}
	offset, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		h.writeError(w, ErrInvalidOffset.Error(), http.StatusBadRequest)
		return
	}
	h.consume(w, r, offset)
}

// LegacyProduce handles POST / with the same body as ProduceRecord
func (h *Handlers) LegacyProduce(w http.ResponseWriter, r *http.Request) {
	h.produce(w, r, http.StatusOK)
}

// LegacyConsume handles GET / with the offset carried in a JSON body
func (h *Handlers) LegacyConsume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxConsumeBodyBytes)

	var req ConsumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDecodeError(w, err)
		return
	}
	if req.Offset == nil {
		h.writeError(w, ErrMissingOffset.Error(), http.StatusBadRequest)
		return
	}
	h.consume(w, r, *req.Offset)
}

func (h *Handlers) produce(w http.ResponseWriter, r *http.Request, successCode int) {
	if h.maxRecordBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, base64Len(h.maxRecordBytes)+envelopeBytes)
	}

	var req ProduceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDecodeError(w, err)
		return
	}
	if req.Record == nil {
		h.writeError(w, ErrMissingRecord.Error(), http.StatusBadRequest)
		return
	}
	if h.maxRecordBytes > 0 && int64(len(req.Record.Value)) > h.maxRecordBytes {
		h.writeError(w, fmt.Sprintf("record of %d bytes exceeds %d bytes", len(req.Record.Value), h.maxRecordBytes),
			http.StatusRequestEntityTooLarge)
		return
	}

	offset, err := h.log.Append(r.Context(), *req.Record)
	if err != nil {
		h.writeLogError(w, r, err)
		return
	}

	h.writeJSON(w, ProduceResponse{Offset: offset}, successCode)
}

func (h *Handlers) consume(w http.ResponseWriter, r *http.Request, offset uint64) {
	record, err := h.log.Read(r.Context(), offset)
	if err != nil {
		h.writeLogError(w, r, err)
		return
	}
	h.writeJSON(w, ConsumeResponse{Record: record}, http.StatusOK)
}

// Health endpoint

// Health handles GET /api/v1/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	records, err := h.log.Len(r.Context())
	if err != nil {
		h.writeJSON(w, HealthResponse{
			Healthy:    false,
			LogHealthy: false,
			Message:    err.Error(),
		}, http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, HealthResponse{
		Healthy:    true,
		LogHealthy: true,
		Records:    records,
		Message:    "ok",
	}, http.StatusOK)
}

// Stats handles GET /api/v1/stats
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	records, err := h.log.Len(r.Context())
	if err != nil {
		h.writeLogError(w, r, err)
		return
	}
	h.writeJSON(w, StatsResponse{Records: records, NextOffset: records}, http.StatusOK)
}

// Helper methods

// writeDecodeError reports a request body that could not be decoded
func (h *Handlers) writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	h.writeError(w, "Invalid request body", http.StatusBadRequest)
}

// base64Len returns the encoded length of n bytes of standard base64
func base64Len(n int64) int64 {
	return (n + 2) / 3 * 4
}

// writeLogError maps a commit log error to an HTTP status
func (h *Handlers) writeLogError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logging.WithSpan(r.Context(), h.logger.WithField(logging.RequestIDKey, GetRequestID(r))).
			WithError(err).Warn("commit log operation abandoned")
		h.writeError(w, "Request cancelled", http.StatusServiceUnavailable)
		return
	}
	switch commitlog.KindOf(err) {
	case commitlog.KindOffsetNotFound:
		h.writeError(w, err.Error(), http.StatusNotFound)
	case commitlog.KindClosed:
		h.writeError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		logging.WithSpan(r.Context(), h.logger.WithField(logging.RequestIDKey, GetRequestID(r))).
			WithError(err).Error("commit log operation failed")
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeError writes an error response as JSON
func (h *Handlers) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

// writeJSON writes a JSON response
func (h *Handlers) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Warn("failed to encode response")
	}
}

// parsePathParam returns the path remainder after prefix
func (h *Handlers) parsePathParam(path, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}

// validateJSON validates that the request has JSON content type
func (h *Handlers) validateJSON(r *http.Request) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("Content-Type must be application/json")
	}
	return nil
}

// validateAuthRequest validates authentication request fields
func (h *Handlers) validateAuthRequest(req *AuthRequest) error {
	if strings.TrimSpace(req.ClientID) == "" {
		return errors.New("clientId is required")
	}
	if len(req.ClientID) < 2 {
		return errors.New("clientId must be at least 2 characters")
	}
	return nil
}

