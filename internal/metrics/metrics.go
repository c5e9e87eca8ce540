package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector wraps the Prometheus metrics of the rental service on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	IncreasesApplied    *prometheus.CounterVec
	HistoryWriteFailure prometheus.Counter
	PendingIncreases    *prometheus.GaugeVec
	CacheLookups        *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector with its own registry under the given namespace
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		IncreasesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rent_increases_applied_total",
			Help:      "Total number of apply-increase attempts by outcome",
		}, []string{"status"}),
		HistoryWriteFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rent_increase_history_failures_total",
			Help:      "Applied increases whose history row could not be written",
		}),
		PendingIncreases: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_increases",
			Help:      "Urgent pending rent increases found by the last reminder run",
		}, []string{"account"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_cache_lookups_total",
			Help:      "Pending increase cache lookups by result",
		}, []string{"result"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	reg.MustRegister(
		c.IncreasesApplied,
		c.HistoryWriteFailure,
		c.PendingIncreases,
		c.CacheLookups,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
	)
	return c
}

// Registry exposes the private registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler that serves the collected metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordApply counts one apply-increase outcome (applied, not_found, rejected, error)
func (c *Collector) RecordApply(status string) {
	if c == nil {
		return
	}
	c.IncreasesApplied.WithLabelValues(status).Inc()
}

// RecordHistoryFailure counts a swallowed history write failure
func (c *Collector) RecordHistoryFailure() {
	if c == nil {
		return
	}
	c.HistoryWriteFailure.Inc()
}

// SetPending sets the urgent pending increase gauge for an account
func (c *Collector) SetPending(account string, count int) {
	if c == nil {
		return
	}
	c.PendingIncreases.WithLabelValues(account).Set(float64(count))
}

// RecordCacheLookup counts a cache hit or miss
func (c *Collector) RecordCacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request metric
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Middleware records every request against its route template
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		c.RecordHTTPRequest(ctx.Request.Method, path, ctx.Writer.Status(), time.Since(start))
	}
}
