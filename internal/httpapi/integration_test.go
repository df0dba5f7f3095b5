package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internallog "github.com/rmacdonaldsmith/commitlog-go/internal/commitlog"
	pebblestore "github.com/rmacdonaldsmith/commitlog-go/internal/storage/pebble"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/httpclient"
)

// TestHTTPClientIntegration drives the server through the public client
func TestHTTPClientIntegration(t *testing.T) {
	setup := NewTestServerSetup(t, Config{AuthEnabled: true})
	ts := httptest.NewServer(setup.Handler)
	defer ts.Close()

	client, err := httpclient.NewClient(httpclient.Config{ServerURL: ts.URL, ClientID: "integration"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.Produce(ctx, []byte("unauthenticated"))
	require.Error(t, err, "produce must fail before login")

	require.NoError(t, client.Authenticate(ctx))

	for i, v := range []string{"a", "b", "c"} {
		offset, err := client.Produce(ctx, []byte(v))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), offset)
	}

	record, err := client.Consume(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, commitlog.Record{Value: []byte("b"), Offset: 1}, record)

	_, err = client.Consume(ctx, 3)
	assert.ErrorIs(t, err, commitlog.ErrOffsetNotFound)

	stats, err := client.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.Records)
}

// TestDurableLogOverHTTP checks that records served over HTTP survive a restart
func TestDurableLogOverHTTP(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	serve := func() (*internallog.PebbleLog, *httptest.Server, *httpclient.Client) {
		log, err := internallog.OpenPebbleLog(pebblestore.Options{Dir: dir}, nil)
		require.NoError(t, err)
		ts := httptest.NewServer(NewServer(log, Config{}, nil).Handler())
		client, err := httpclient.NewClient(httpclient.Config{ServerURL: ts.URL})
		require.NoError(t, err)
		return log, ts, client
	}

	log, ts, client := serve()
	for _, v := range []string{"first", "second"} {
		_, err := client.Produce(ctx, []byte(v))
		require.NoError(t, err)
	}
	ts.Close()
	require.NoError(t, log.Close())

	log, ts, client = serve()
	defer func() {
		ts.Close()
		_ = log.Close()
	}()

	offset, err := client.Produce(ctx, []byte("third"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), offset)

	record, err := client.Consume(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), record.Value)
}

// TestEmptyValueEncodingMatchesAcrossEngines checks that both engines serve an
// empty record value as the same JSON
func TestEmptyValueEncodingMatchesAcrossEngines(t *testing.T) {
	durable, err := internallog.OpenPebbleLog(pebblestore.Options{Dir: t.TempDir()}, nil)
	require.NoError(t, err)

	engines := map[string]commitlog.CommitLog{
		"memory": internallog.NewInMemoryLog(),
		"pebble": durable,
	}
	for name, log := range engines {
		t.Run(name, func(t *testing.T) {
			t.Cleanup(func() { _ = log.Close() })
			handler := NewServer(log, Config{}, nil).Handler()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(`{"record":{"value":""}}`))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

			rr = httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/records/0", nil))
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.JSONEq(t, `{"record":{"value":"","offset":0}}`, rr.Body.String())
		})
	}
}

// TestCancelledRequestIsNotAnInternalError checks that an abandoned request
// is reported as unavailable rather than logged as a server fault
func TestCancelledRequestIsNotAnInternalError(t *testing.T) {
	log, err := internallog.OpenPebbleLog(pebblestore.Options{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	logger, hook := logtest.NewNullLogger()
	handler := NewServer(log, Config{}, logger).Handler()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(`{"record":{"value":"YQ=="}}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code, rr.Body.String())
	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, "commit log operation failed", entry.Message)
		if entry.Message == "commit log operation abandoned" {
			assert.Equal(t, logrus.WarnLevel, entry.Level)
		}
	}

	n, err := log.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}
