// Package observability collects Prometheus metrics for the application.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the Prometheus registry and application metrics. All recording
// methods are safe on a nil receiver so wiring stays optional in tests.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	roleWrites          *prometheus.CounterVec
	authzDenials        *prometheus.CounterVec
	accessResolutions   prometheus.Counter
	danglingAssignments *prometheus.GaugeVec
}

// NewMetrics initializes the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venuedesk_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "venuedesk_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	roleWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venuedesk_role_writes_total",
		Help: "Role store mutations by operation.",
	}, []string{"op"})
	authzDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venuedesk_authz_denials_total",
		Help: "Mutations rejected because the actor lacked the admin class.",
	}, []string{"op"})
	resolutions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "venuedesk_access_resolutions_total",
		Help: "Effective permission resolutions served.",
	})
	dangling := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "venuedesk_dangling_role_assignments",
		Help: "Profiles whose role_id points at a deleted role, per tenant.",
	}, []string{"tenant"})
	registry.MustRegister(requests, duration, roleWrites, authzDenials, resolutions, dangling)
	return &Metrics{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:       requests,
		requestDuration:     duration,
		roleWrites:          roleWrites,
		authzDenials:        authzDenials,
		accessResolutions:   resolutions,
		danglingAssignments: dangling,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RoleWrite counts a successful role store mutation.
func (m *Metrics) RoleWrite(op string) {
	if m == nil {
		return
	}
	m.roleWrites.WithLabelValues(op).Inc()
}

// AuthzDenied counts a mutation rejected by the admin check.
func (m *Metrics) AuthzDenied(op string) {
	if m == nil {
		return
	}
	m.authzDenials.WithLabelValues(op).Inc()
}

// AccessResolved counts one effective permission resolution.
func (m *Metrics) AccessResolved() {
	if m == nil {
		return
	}
	m.accessResolutions.Inc()
}

// SetDanglingAssignments records the dangling role-reference count for a tenant.
// Fed by the background audit job.
func (m *Metrics) SetDanglingAssignments(tenant string, count int) {
	if m == nil {
		return
	}
	m.danglingAssignments.WithLabelValues(tenant).Set(float64(count))
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
