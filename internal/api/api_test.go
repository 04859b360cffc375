package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeReady bool

func (f fakeReady) IsOpen() bool { return bool(f) }

func newTestServer(t *testing.T, ready ReadinessChecker) (*httptest.Server, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	h := NewHandler(Config{Ready: ready, Gatherer: reg, Logger: discardLogger()})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, reg
}

func decodeStatus(t *testing.T, resp *http.Response) string {
	t.Helper()

	var body struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Data.Status
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, fakeReady(false))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "ok", decodeStatus(t, resp))
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		ready  ReadinessChecker
		code   int
		status string
	}{
		{"connection open", fakeReady(true), http.StatusOK, "ready"},
		{"connection closed", fakeReady(false), http.StatusServiceUnavailable, "not ready"},
		{"no checker", nil, http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.ready)

			resp, err := http.Get(srv.URL + "/readyz")
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, tt.status, decodeStatus(t, resp))
		})
	}
}

func TestMetrics(t *testing.T) {
	srv, reg := newTestServer(t, fakeReady(true))
	promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "content_worker_test_total",
		Help: "test counter",
	}).Inc()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "content_worker_test_total 1")
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, fakeReady(true))

	resp, err := http.Post(srv.URL+"/healthz", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), string(ErrCodeInternalError))
}

func TestLogging_CapturesStatus(t *testing.T) {
	var captured int
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Logging(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r)
		captured = w.(*responseWriter).status
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, http.StatusTeapot, captured)
}
