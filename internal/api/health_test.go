package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	up   = pingFunc(func(context.Context) error { return nil })
	down = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		store      Pinger
		journal    Pinger
		wantCode   int
		wantStatus string
	}{
		{"all up", up, up, http.StatusOK, "healthy"},
		{"no journal", up, nil, http.StatusOK, "healthy"},
		{"journal down", up, down, http.StatusOK, "degraded"},
		{"store down stays in rotation", down, up, http.StatusOK, "degraded"},
		{"store down and journal down", down, down, http.StatusOK, "degraded"},
		{"store not wired", nil, up, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker(tt.store, tt.journal, "test")
			rec := httptest.NewRecorder()
			hc.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, tt.wantCode == http.StatusOK, body["ready"])
		})
	}
}

func TestHealthAlways200(t *testing.T) {
	hc := NewHealthChecker(down, nil, "1.2.3")
	rec := httptest.NewRecorder()
	hc.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, CheckDown, body.Checks["store"].Status)
	assert.Equal(t, "connection refused", body.Checks["store"].Message)
	assert.Equal(t, CheckSkipped, body.Checks["journal"].Status)
}

func TestMissingStoreIsUnhealthy(t *testing.T) {
	hc := NewHealthChecker(nil, up, "test")
	checks, overall := hc.evaluate(context.Background())
	assert.Equal(t, StatusUnhealthy, overall)
	assert.Equal(t, "not configured", checks["store"].Message)
}

func TestSlowPingIsDegraded(t *testing.T) {
	slow := pingFunc(func(context.Context) error {
		time.Sleep(600 * time.Millisecond)
		return nil
	})
	hc := NewHealthChecker(up, slow, "test")
	checks, overall := hc.evaluate(context.Background())
	assert.Equal(t, StatusDegraded, overall)
	assert.Equal(t, CheckDegraded, checks["journal"].Status)
}

func TestLiveness(t *testing.T) {
	hc := NewHealthChecker(down, down, "test")
	rec := httptest.NewRecorder()
	hc.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
