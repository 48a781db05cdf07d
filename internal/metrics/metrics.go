// Package metrics provides Prometheus metrics for the generation gate.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "genquota"

// Collector holds all Prometheus metrics. A nil *Collector is a valid no-op.
type Collector struct {
	registry *prometheus.Registry

	// Generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	QuotaDenials       prometheus.Counter
	ConcurrencyBlocks  prometheus.Counter
	PremiumRejections  prometheus.Counter

	// Billing metrics
	WebhookEvents       *prometheus.CounterVec
	SubscriptionLookups *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal *prometheus.CounterVec
}

// New creates a collector registered on its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Generation attempts by classified outcome and charged tier",
			},
			[]string{"outcome", "tier"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Provider call duration in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 30, 45, 55, 60},
			},
			[]string{"outcome"},
		),
		QuotaDenials: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_denials_total",
				Help:      "Generation attempts rejected because no tier had allowance",
			},
		),
		ConcurrencyBlocks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "concurrency_conflicts_total",
				Help:      "Generation attempts rejected because one was already in flight",
			},
		),
		PremiumRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "premium_model_rejections_total",
				Help:      "Premium model requests without an active subscription",
			},
		),
		WebhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Billing webhook events by type and result",
			},
			[]string{"type", "result"},
		),
		SubscriptionLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscription_lookup_failures_total",
				Help:      "Subscription status lookups that degraded to not subscribed",
			},
			[]string{"reason"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
	}
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveGeneration(outcome, tier string, d time.Duration) {
	if c == nil {
		return
	}
	c.GenerationsTotal.WithLabelValues(outcome, tier).Inc()
	c.GenerationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (c *Collector) QuotaDenied() {
	if c == nil {
		return
	}
	c.QuotaDenials.Inc()
}

func (c *Collector) ConcurrencyConflict() {
	if c == nil {
		return
	}
	c.ConcurrencyBlocks.Inc()
}

func (c *Collector) PremiumRejected() {
	if c == nil {
		return
	}
	c.PremiumRejections.Inc()
}

func (c *Collector) WebhookEvent(eventType, result string) {
	if c == nil {
		return
	}
	c.WebhookEvents.WithLabelValues(eventType, result).Inc()
}

// SubscriptionLookupFailed satisfies revenuecat.LookupFailureObserver.
func (c *Collector) SubscriptionLookupFailed(reason string) {
	if c == nil {
		return
	}
	c.SubscriptionLookups.WithLabelValues(reason).Inc()
}

func (c *Collector) Request(route string, status int) {
	if c == nil {
		return
	}
	c.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
