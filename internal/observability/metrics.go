package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/contact-form-service/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation.
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Reducer events applied, by type (change, submit).
	ContactEventsTotal *prometheus.CounterVec

	// Submit outcomes. Watch for: rejected/accepted ratio as a form usability signal.
	ContactSubmissionsTotal *prometheus.CounterVec

	// Fields failing validation on submit attempts.
	ContactValidationErrorsTotal *prometheus.CounterVec

	// Form instances mounted and unmounted.
	ContactSessionsTotal *prometheus.CounterVec

	// Session store calls by operation and status. Watch for: error status growth.
	SessionStoreOperationsTotal *prometheus.CounterVec

	// Session store latency. Watch for: remote backend p99 creeping towards request timeout.
	SessionStoreDuration *prometheus.HistogramVec

	// Circuit breaker transitions for guarded session backends.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec

	// Circuit breaker state: 0 closed, 1 open, 2 half-open.
	CircuitBreakerState *prometheus.GaugeVec

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	ContactEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactEventsTotal",
			Help: "Contact form events applied to a form instance",
		},
		[]string{"type"},
	)
	ContactSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactSubmissionsTotal",
			Help: "Contact form submit attempts by result (accepted, rejected)",
		},
		[]string{"result"},
	)
	ContactValidationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactValidationErrorsTotal",
			Help: "Fields failing validation on rejected submit attempts",
		},
		[]string{"field"},
	)
	ContactSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactSessionsTotal",
			Help: "Contact form instances by lifecycle event (mounted, unmounted)",
		},
		[]string{"event"},
	)
	SessionStoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionStoreOperationsTotal",
			Help: "Session store operations by operation and status",
		},
		[]string{"operation", "status"},
	)
	SessionStoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sessionStoreDurationSeconds",
			Help:    "Session store operation latency in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"component"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		RateLimitDeniedTotal,
		ContactEventsTotal, ContactSubmissionsTotal, ContactValidationErrorsTotal, ContactSessionsTotal,
		SessionStoreOperationsTotal, SessionStoreDuration,
		CircuitBreakerTransitionsTotal, CircuitBreakerState,
	)
}

// RegisterRateLimitGauges registers load and rejects gauges over the overload window.
// Call from main after config load with cfg.OverloadWindow.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests in sliding window; load/capacity planning",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// ObserveSessionStore records one session store call.
func ObserveSessionStore(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SessionStoreOperationsTotal.WithLabelValues(operation, status).Inc()
	SessionStoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordCircuitBreakerTransition records a transition and updates the state gauge.
func RecordCircuitBreakerTransition(component, from, to string, toValue int) {
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
	CircuitBreakerState.WithLabelValues(component).Set(float64(toValue))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
