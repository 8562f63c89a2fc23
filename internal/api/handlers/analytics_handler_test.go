package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankiq/backend/internal/analytics"
	"github.com/bankiq/backend/internal/database"
	"github.com/bankiq/backend/pkg/circuitbreaker"
	"github.com/bankiq/backend/pkg/config"
)

// fakeMetricsCache holds at most one marshaled payload, like the single
// dashboard key in Redis.
type fakeMetricsCache struct {
	payload       []byte
	setCalls      int
	invalidations int
}

func (f *fakeMetricsCache) GetMetrics(_ context.Context, dest interface{}) (bool, error) {
	if f.payload == nil {
		return false, nil
	}
	return true, json.Unmarshal(f.payload, dest)
}

func (f *fakeMetricsCache) SetMetrics(_ context.Context, payload interface{}, _ time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.payload = data
	f.setCalls++
	return nil
}

func (f *fakeMetricsCache) InvalidateMetrics(_ context.Context) error {
	f.payload = nil
	f.invalidations++
	return nil
}

// cannedRunner answers every query with the same result.
type cannedRunner struct {
	result *database.Result
	calls  int
}

func (r *cannedRunner) ExecuteSafeQuery(query string) *database.Result {
	r.calls++
	if r.result != nil {
		return r.result
	}
	return &database.Result{Success: false, Query: query, Error: "no canned result"}
}

func newMetricsTestHandler(runner database.Runner, cache metricsCache) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:  analytics.NewService(config.AnalyticsConfig{}, runner, nil),
		cache:    cache,
		breaker:  circuitbreaker.New("metrics-cache-test", circuitbreaker.Config{}),
		cacheTTL: time.Minute,
	}
}

func TestBusinessMetricsCacheHitMarkedCached(t *testing.T) {
	stored := analytics.BusinessMetrics{
		Success:      true,
		Metrics:      map[string]map[string]float64{"customer_metrics": {"total_customers": 200}},
		CalculatedAt: "2026-01-01T00:00:00Z",
	}
	payload, err := json.Marshal(stored)
	require.NoError(t, err)

	cache := &fakeMetricsCache{payload: payload}
	runner := &cannedRunner{}
	h := newMetricsTestHandler(runner, cache)

	app := fiber.New()
	app.Get("/business-metrics", h.HandleBusinessMetrics)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/business-metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out analytics.BusinessMetrics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Cached)
	assert.True(t, out.Success)
	assert.Equal(t, float64(200), out.Metrics["customer_metrics"]["total_customers"])
	assert.Zero(t, runner.calls, "a cache hit must not recompute")
}

func TestBusinessMetricsRecomputeNotMarkedCached(t *testing.T) {
	cache := &fakeMetricsCache{}
	runner := &cannedRunner{result: &database.Result{
		Success:  true,
		Columns:  []string{"a", "b", "c", "d", "e"},
		Rows:     [][]database.Value{{int64(10), int64(5), float64(1), int64(2), float64(3)}},
		RowCount: 1,
	}}
	h := newMetricsTestHandler(runner, cache)

	app := fiber.New()
	app.Get("/business-metrics", h.HandleBusinessMetrics)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/business-metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out analytics.BusinessMetrics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.False(t, out.Cached)
	assert.Equal(t, 1, cache.setCalls)

	// The cached payload stays unmarked so a later hit sets the flag itself.
	var written analytics.BusinessMetrics
	require.NoError(t, json.Unmarshal(cache.payload, &written))
	assert.False(t, written.Cached)
}

func TestInvalidateMetricsCache(t *testing.T) {
	cache := &fakeMetricsCache{payload: []byte(`{"success":true}`)}
	h := newMetricsTestHandler(&cannedRunner{}, cache)

	app := fiber.New()
	app.Delete("/business-metrics/cache", h.HandleInvalidateMetricsCache)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, "/business-metrics/cache", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, 1, cache.invalidations)
	assert.Nil(t, cache.payload)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, true, out["success"])
	assert.Equal(t, true, out["invalidated"])
}

func TestInvalidateMetricsCacheWithoutCache(t *testing.T) {
	h := newMetricsTestHandler(&cannedRunner{}, nil)

	app := fiber.New()
	app.Delete("/business-metrics/cache", h.HandleInvalidateMetricsCache)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, "/business-metrics/cache", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, false, out["invalidated"])
}
