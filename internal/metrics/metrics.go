// Package metrics holds the Prometheus collectors for the auth pipeline.
// All methods are safe on a nil *Metrics so callers never guard.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/you/lendauth/domain"
)

type Metrics struct {
	registry *prometheus.Registry

	authChecks    *prometheus.CounterVec
	otpSends      *prometheus.CounterVec
	otpVerifies   *prometheus.CounterVec
	sessions      *prometheus.CounterVec
	diagnostics   *prometheus.CounterVec
	httpInFlight  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lendauth_auth_checks_total",
			Help: "Authentication checks by result.",
		}, []string{"result"}),
		otpSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lendauth_otp_sends_total",
			Help: "OTP send requests by method and outcome.",
		}, []string{"method", "outcome"}),
		otpVerifies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lendauth_otp_verifications_total",
			Help: "OTP verifications by method and result.",
		}, []string{"method", "result"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lendauth_sessions_total",
			Help: "Session lifecycle transitions.",
		}, []string{"event"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lendauth_diagnostic_events_total",
			Help: "Diagnostic events by action and severity.",
		}, []string{"action", "severity"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}

	m.registry.MustRegister(
		m.authChecks, m.otpSends, m.otpVerifies, m.sessions, m.diagnostics,
		m.httpInFlight, m.httpRequests, m.httpDurations,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AuthCheck(authenticated bool) {
	if m == nil {
		return
	}
	result := "anonymous"
	if authenticated {
		result = "authenticated"
	}
	m.authChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) OTPSend(method domain.Method, outcome domain.SendOutcome) {
	if m == nil {
		return
	}
	m.otpSends.WithLabelValues(string(method), string(outcome)).Inc()
}

func (m *Metrics) OTPVerify(method domain.Method, success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.otpVerifies.WithLabelValues(string(method), result).Inc()
}

func (m *Metrics) SessionEvent(event string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(event).Inc()
}

// Emit lets Metrics sit behind the diagnostics dispatcher as a sink
func (m *Metrics) Emit(_ context.Context, event *domain.DiagnosticEvent) {
	if m == nil || event == nil {
		return
	}
	m.diagnostics.WithLabelValues(string(event.Action), string(event.Severity)).Inc()
}

// Instrument is gin middleware recording RPS, latency and in-flight requests
func (m *Metrics) Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.httpInFlight.Inc()
		start := time.Now()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		m.httpDurations.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpInFlight.Dec()
	}
}
