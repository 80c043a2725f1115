// Package metrics exposes Prometheus instrumentation for the tenancy service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks entity lifecycle counts, login outcomes and HTTP traffic.
// All methods are safe on a nil receiver.
type Metrics struct {
	TenantsCreated   prometheus.Counter
	BranchesCreated  prometheus.Counter
	UsersCreated     *prometheus.CounterVec
	StateTransitions *prometheus.CounterVec
	LoginAttempts    *prometheus.CounterVec
	AccessDenied     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers all metrics with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers all metrics with reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TenantsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tenancy_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		BranchesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tenancy_branches_created_total",
			Help: "Total number of branches created, including Main branches",
		}),
		UsersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_users_created_total",
			Help: "Total number of users created by role",
		}, []string{"role"}),
		StateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_state_transitions_total",
			Help: "Total number of activate/deactivate transitions",
		}, []string{"entity", "state"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_login_attempts_total",
			Help: "Total number of login attempts by result",
		}, []string{"result"}),
		AccessDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_access_denied_total",
			Help: "Total number of rejected requests by error kind",
		}, []string{"kind"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tenancy_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatherer: g,
	}
}

// Handler serves the registered metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) IncrementTenantCreated() {
	if m == nil {
		return
	}
	m.TenantsCreated.Inc()
}

func (m *Metrics) IncrementBranchCreated() {
	if m == nil {
		return
	}
	m.BranchesCreated.Inc()
}

func (m *Metrics) IncrementUserCreated(role string) {
	if m == nil {
		return
	}
	m.UsersCreated.WithLabelValues(role).Inc()
}

// IncrementStateTransition records an entity moving to active or inactive.
func (m *Metrics) IncrementStateTransition(entity string, active bool) {
	if m == nil {
		return
	}
	state := "inactive"
	if active {
		state = "active"
	}
	m.StateTransitions.WithLabelValues(entity, state).Inc()
}

// IncrementLogin records a login attempt. result is "success" or "failure".
func (m *Metrics) IncrementLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementAccessDenied(kind string) {
	if m == nil {
		return
	}
	m.AccessDenied.WithLabelValues(kind).Inc()
}

// ObserveHTTP records a finished request. Call with time.Now() taken at the
// start of the request.
func (m *Metrics) ObserveHTTP(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}
