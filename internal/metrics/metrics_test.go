package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	c := New()

	c.ObserveGeneration("success", "credits", 2*time.Second)
	c.ObserveGeneration("success", "credits", time.Second)
	c.QuotaDenied()
	c.WebhookEvent("RENEWAL", "applied")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.GenerationsTotal.WithLabelValues("success", "credits")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.QuotaDenials))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.WebhookEvents.WithLabelValues("RENEWAL", "applied")))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.ConcurrencyConflict()

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "genquota_concurrency_conflicts_total 1"))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveGeneration("success", "free", time.Second)
	c.QuotaDenied()
	c.SubscriptionLookupFailed("transport")
	c.Request("/api/generate", http.StatusOK)

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
