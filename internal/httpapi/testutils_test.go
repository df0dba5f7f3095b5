package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	internallog "github.com/rmacdonaldsmith/commitlog-go/internal/commitlog"
)

// TestServerSetup holds common test dependencies
type TestServerSetup struct {
	Log     *internallog.InMemoryLog
	Server  *Server
	Handler http.Handler
	Hook    *logtest.Hook
}

// NewTestServerSetup creates an in-memory log behind an HTTP server
func NewTestServerSetup(t *testing.T, config Config) *TestServerSetup {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	log := internallog.NewInMemoryLog()
	t.Cleanup(func() { _ = log.Close() })

	if config.SecretKey == "" {
		config.SecretKey = "test-secret-key"
	}
	server := NewServer(log, config, logger)

	return &TestServerSetup{
		Log:     log,
		Server:  server,
		Handler: server.Handler(),
		Hook:    hook,
	}
}

// GenerateTestToken creates a JWT token for testing
func (setup *TestServerSetup) GenerateTestToken(t *testing.T, clientID string) string {
	t.Helper()

	token, _, err := setup.Server.jwtAuth.GenerateToken(clientID)
	if err != nil {
		t.Fatalf("Failed to generate test token: %v", err)
	}
	return token
}

// Do serves a request with an optional JSON body and bearer token
func (setup *TestServerSetup) Do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	setup.Handler.ServeHTTP(rr, req)
	return rr
}
