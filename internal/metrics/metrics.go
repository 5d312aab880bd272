// Package metrics defines the Prometheus collectors of the client.
package metrics

import (
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector. A nil *Metrics records nothing.
type Metrics struct {
	APIRequests    *prometheus.CounterVec
	APIDuration    *prometheus.HistogramVec
	PageRequests   *prometheus.CounterVec
	PageDuration   *prometheus.HistogramVec
	GuardDecisions *prometheus.CounterVec
	Logouts        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arc_api_requests_total",
				Help: "Requests sent to the receivables API",
			},
			[]string{"method", "path", "status"},
		),
		APIDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arc_api_request_duration_seconds",
				Help:    "Latency of receivables API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		PageRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arc_page_requests_total",
				Help: "Page requests served by the web front end",
			},
			[]string{"method", "route", "status"},
		),
		PageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arc_page_request_duration_seconds",
				Help:    "Latency of page requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		GuardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arc_guard_decisions_total",
				Help: "Route guard outcomes",
			},
			[]string{"outcome"},
		),
		Logouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arc_forced_logouts_total",
				Help: "Sessions torn down because the API answered 401",
			},
			[]string{"path"},
		),
	}
	reg.MustRegister(m.APIRequests, m.APIDuration, m.PageRequests, m.PageDuration, m.GuardDecisions, m.Logouts)
	return m
}

// ObserveAPI records one API call.
func (m *Metrics) ObserveAPI(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	p := NormalizePath(path)
	m.APIRequests.WithLabelValues(method, p, statusLabel(status)).Inc()
	m.APIDuration.WithLabelValues(method, p).Observe(seconds)
}

// ObservePage records one served page.
func (m *Metrics) ObservePage(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.PageRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.PageDuration.WithLabelValues(method, route).Observe(seconds)
}

// ObserveGuard records a guard outcome ("allow", "redirect", "abort").
func (m *Metrics) ObserveGuard(outcome string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(outcome).Inc()
}

// ObserveForcedLogout records a 401-triggered logout.
func (m *Metrics) ObserveForcedLogout(path string) {
	if m == nil {
		return
	}
	m.Logouts.WithLabelValues(NormalizePath(path)).Inc()
}

// NormalizePath replaces UUID and numeric path segments with ":id" to keep
// label cardinality bounded.
func NormalizePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if s == "" {
			continue
		}
		if _, err := uuid.FromString(s); err == nil {
			segs[i] = ":id"
			continue
		}
		if _, err := strconv.ParseUint(s, 10, 64); err == nil {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
