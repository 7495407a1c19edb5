// Package metrics exposes Prometheus counters for the contribution ledger and
// the mobile-money bridge, plus HTTP request metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hazina"

// Registry owns every collector the service exports
type Registry struct {
	registry *prometheus.Registry

	contributionsSubmitted *prometheus.CounterVec
	approvalsResolved      *prometheus.CounterVec
	integrityViolations    *prometheus.CounterVec
	chargesInitiated       *prometheus.CounterVec
	callbacksProcessed     *prometheus.CounterVec
	httpRequests           *prometheus.CounterVec
	httpDuration           *prometheus.HistogramVec
}

// NewRegistry creates a registry with the service collectors plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		contributionsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contributions_submitted_total",
			Help:      "Contribution claims accepted for approval, by declared method.",
		}, []string{"method"}),
		approvalsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_resolved_total",
			Help:      "Approval resolutions, by outcome (approved, rejected, already_resolved).",
		}, []string{"outcome"}),
		integrityViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_violations_total",
			Help:      "Claim/approval/ledger invariant violations detected while reporting.",
		}, []string{"kind"}),
		chargesInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mpesa_stk_push_total",
			Help:      "STK push initiations, by result (accepted, rejected, error).",
		}, []string{"result"}),
		callbacksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mpesa_callbacks_total",
			Help:      "Payment network callbacks, by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.contributionsSubmitted,
		r.approvalsResolved,
		r.integrityViolations,
		r.chargesInitiated,
		r.callbacksProcessed,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// ContributionSubmitted counts an accepted claim
func (r *Registry) ContributionSubmitted(method string) {
	r.contributionsSubmitted.WithLabelValues(method).Inc()
}

// ApprovalResolved counts a resolution attempt by outcome
func (r *Registry) ApprovalResolved(outcome string) {
	r.approvalsResolved.WithLabelValues(outcome).Inc()
}

// IntegrityViolation counts a detected invariant violation
func (r *Registry) IntegrityViolation(kind string) {
	r.integrityViolations.WithLabelValues(kind).Inc()
}

// ChargeInitiated counts an STK push attempt by result
func (r *Registry) ChargeInitiated(result string) {
	r.chargesInitiated.WithLabelValues(result).Inc()
}

// CallbackProcessed counts a callback by outcome
func (r *Registry) CallbackProcessed(outcome string) {
	r.callbacksProcessed.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// GinMiddleware records request count and latency. Routes are labelled by
// their pattern so path parameters do not explode cardinality.
func (r *Registry) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		r.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
