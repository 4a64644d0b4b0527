package observability_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StateCache/internal/observability"
)

func TestHealthChecker_Readiness(t *testing.T) {
	h := observability.NewHealthChecker()
	mux := h.Mux(prometheus.NewRegistry())

	get := func(path string) int {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("/healthz"))
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz"))

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, get("/readyz"))

	h.AddCheck("backend", func(context.Context) error { return errors.New("down") })
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz"))

	failures := h.RunChecks(context.Background())
	require.Contains(t, failures, "backend")
	assert.Equal(t, "down", failures["backend"])
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	// Two caches in one process must not collide on registration.
	m1 := observability.NewMetrics(prometheus.NewRegistry())
	m2 := observability.NewMetrics(prometheus.NewRegistry())
	require.NotNil(t, m1)
	require.NotNil(t, m2)

	m1.SetIndexSizes(map[string]int{"orders_open": 3})
	m1.SetChannelMetrics("persist", 5, 10)
}
