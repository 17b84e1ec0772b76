package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRegistry_Exposition(t *testing.T) {
	r := NewRegistry()
	r.ObserveRequest("GET", "/health", "200", 5*time.Millisecond)
	r.ObserveRequest("GET", "/health", "200", 7*time.Millisecond)
	r.ObserveCalculation("features", 20*time.Millisecond)
	r.FeatureSkipped()
	r.RateLimited()
	r.CacheLookup(true)
	r.CacheLookup(false)
	r.CacheLookup(false)

	body := scrape(t, r)
	assert.Contains(t, body, `tradelens_http_requests_total{method="GET",route="/health",status="200"} 2`)
	assert.Contains(t, body, `tradelens_http_request_duration_seconds_count{method="GET",route="/health"} 2`)
	assert.Contains(t, body, `tradelens_calculation_duration_seconds_count{calculator="features"} 1`)
	assert.Contains(t, body, `tradelens_feature_analysis_skipped_total 1`)
	assert.Contains(t, body, `tradelens_http_rate_limited_total 1`)
	assert.Contains(t, body, `tradelens_result_cache_lookups_total{result="miss"} 2`)
	assert.Contains(t, body, `go_goroutines`)
}

func TestRegistry_Independent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.FeatureSkipped()

	assert.Contains(t, scrape(t, a), `tradelens_feature_analysis_skipped_total 1`)
	assert.Contains(t, scrape(t, b), `tradelens_feature_analysis_skipped_total 0`)
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveRequest("GET", "/", "200", time.Millisecond)
		r.ObserveCalculation("metrics", time.Millisecond)
		r.FeatureSkipped()
		r.RateLimited()
		r.CacheLookup(true)
	})
}
