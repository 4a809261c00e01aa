package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/pgate/internal/database"
	"github.com/koustreak/pgate/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	err    error
	closes int
}

func (c *stubClient) Driver() database.Driver { return database.DriverPostgres }

func (c *stubClient) Connect(context.Context, string, database.Credentials, database.Options) (database.RawConn, error) {
	if c.err != nil {
		return nil, c.err
	}
	return struct{}{}, nil
}

func (c *stubClient) Close(context.Context, database.RawConn) error {
	c.closes++
	return nil
}

func newServer(t *testing.T, client database.Client) (*Server, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: buf})
	gw := database.NewGateway(client, nil)
	return New(gw, database.Resolve(database.PartialConfig{}), log), buf
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, Result) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var res Result
	if path == "/probe" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec, res
}

func TestHealthz(t *testing.T) {
	s, buf := newServer(t, &stubClient{})

	rec, _ := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Contains(t, buf.String(), `"path":"/healthz"`)
}

func TestProbe_OK(t *testing.T) {
	client := &stubClient{}
	s, _ := newServer(t, client)

	rec, res := get(t, s, "/probe")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Result{OK: true, Driver: "postgres"}, res)
	assert.Equal(t, 1, client.closes)
}

func TestProbe_Failure(t *testing.T) {
	client := &stubClient{err: database.Signal("invalid_password")}
	s, _ := newServer(t, client)

	rec, res := get(t, s, "/probe")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, Result{Severity: "error", Code: "28P01", Description: "Invalid password"}, res)
	assert.Zero(t, client.closes)
}

func TestProbe_UnknownRoute(t *testing.T) {
	s, _ := newServer(t, &stubClient{})

	rec, _ := get(t, s, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s, _ := newServer(t, &stubClient{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetrics_CountsProbes(t *testing.T) {
	client := &stubClient{}
	s, _ := newServer(t, client)

	get(t, s, "/probe")
	client.err = database.Signal("28000")
	get(t, s, "/probe")
	get(t, s, "/probe")

	rec, _ := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `pgate_probe_total{code="ok",driver="postgres"} 1`)
	assert.Contains(t, body, `pgate_probe_total{code="28000",driver="postgres"} 2`)
	assert.Contains(t, body, `pgate_probe_duration_seconds_count{driver="postgres"} 3`)
}

func TestProbe_FailureLoggedWithRequestID(t *testing.T) {
	s, buf := newServer(t, &stubClient{err: database.Signal("28000")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var lines []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		require.NoError(t, dec.Decode(&entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, "probe failed", lines[0]["message"])
	assert.Equal(t, "28000", lines[0]["code"])
	assert.Equal(t, "req-42", lines[0]["request_id"])

	assert.Equal(t, "request", lines[1]["message"])
	assert.Equal(t, float64(http.StatusServiceUnavailable), lines[1]["status"])
	assert.Equal(t, "req-42", lines[1]["request_id"])
}
