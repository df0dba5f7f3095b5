package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

func TestNewClient(t *testing.T) {
	t.Run("valid_config", func(t *testing.T) {
		client, err := NewClient(Config{ServerURL: "http://localhost:8080"})
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, client.config.Timeout)
		assert.False(t, client.IsAuthenticated())
	})

	t.Run("missing_server_url", func(t *testing.T) {
		client, err := NewClient(Config{})
		assert.Nil(t, client)
		assert.ErrorContains(t, err, "ServerURL is required")
	})

	t.Run("invalid_server_url", func(t *testing.T) {
		client, err := NewClient(Config{ServerURL: "://invalid-url"})
		assert.Nil(t, client)
		assert.ErrorContains(t, err, "invalid ServerURL")
	})
}

func TestClient_Authenticate(t *testing.T) {
	t.Run("successful_authentication", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var authReq AuthRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&authReq))
			assert.Equal(t, "test-client", authReq.ClientID)

			json.NewEncoder(w).Encode(AuthResponse{
				Token:     "test-jwt-token",
				ClientID:  "test-client",
				ExpiresAt: time.Now().Add(time.Hour),
			})
		}))
		defer server.Close()

		client, err := NewClient(Config{ServerURL: server.URL, ClientID: "test-client"})
		require.NoError(t, err)

		require.NoError(t, client.Authenticate(context.Background()))
		assert.True(t, client.IsAuthenticated())
		assert.Equal(t, "test-jwt-token", client.GetToken())
	})

	t.Run("missing_client_id", func(t *testing.T) {
		client, err := NewClient(Config{ServerURL: "http://localhost:8080"})
		require.NoError(t, err)
		assert.ErrorContains(t, client.Authenticate(context.Background()), "ClientID is required")
	})

	t.Run("authentication_failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Bad Request", Message: "clientId is required", Code: 400})
		}))
		defer server.Close()

		client, err := NewClient(Config{ServerURL: server.URL, ClientID: "test-client"})
		require.NoError(t, err)

		err = client.Authenticate(context.Background())
		assert.ErrorContains(t, err, "authentication failed")
		assert.ErrorContains(t, err, "clientId is required")
		assert.False(t, client.IsAuthenticated())
	})
}

func TestClient_Produce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/records", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req ProduceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []byte("payload"), req.Record.Value)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(ProduceResponse{Offset: 7})
	}))
	defer server.Close()

	client, err := NewClient(Config{ServerURL: server.URL})
	require.NoError(t, err)
	client.SetToken("tok")

	offset, err := client.Produce(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), offset)
}

func TestClient_Consume(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/api/v1/records/1":
			json.NewEncoder(w).Encode(ConsumeResponse{Record: commitlog.Record{Value: []byte("b"), Offset: 1}})
		case "/api/v1/records/9":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Not Found", Message: "offset not found", Code: 404})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{ServerURL: server.URL})
	require.NoError(t, err)
	ctx := context.Background()

	record, err := client.Consume(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), record.Value)
	assert.Equal(t, uint64(1), record.Offset)

	_, err = client.Consume(ctx, 9)
	assert.ErrorIs(t, err, commitlog.ErrOffsetNotFound)

	_, err = client.Consume(ctx, 2)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestClient_HealthAndStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/health":
			json.NewEncoder(w).Encode(HealthResponse{Healthy: true, LogHealthy: true, Records: 3, Message: "ok"})
		case "/api/v1/stats":
			json.NewEncoder(w).Encode(StatsResponse{Records: 3, NextOffset: 3})
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{ServerURL: server.URL})
	require.NoError(t, err)

	health, err := client.GetHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, health.Healthy)
	assert.Equal(t, uint64(3), health.Records)

	stats, err := client.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.NextOffset)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client, err := NewClient(Config{ServerURL: server.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.GetHealth(context.Background())
	assert.ErrorContains(t, err, "request failed")
}
