package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/customers":                                        "/customers",
		"/customers/3f2504e0-4f89-11d3-9a0c-0305e82c3301":   "/customers/:id",
		"/customers/42/debt-work":                           "/customers/:id/debt-work",
		"/reports/receivables-dynamics":                     "/reports/receivables-dynamics",
		"/api/v1/users/3f2504e0-4f89-11d3-9a0c-0305e82c3301": "/api/v1/users/:id",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePath(in), in)
	}
}

func TestMetrics_Observe(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.ObserveAPI("GET", "/customers/42", 200, 0.01)
	m.ObserveAPI("GET", "/customers/43", 200, 0.02)
	m.ObserveAPI("GET", "/auth/me", 0, 0.5)
	m.ObservePage("GET", "/customers", 303, 0.01)
	m.ObserveGuard("redirect")
	m.ObserveForcedLogout("/users/7")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/customers/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/auth/me", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PageRequests.WithLabelValues("GET", "/customers", "303")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("redirect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logouts.WithLabelValues("/users/:id")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAPI("GET", "/", 200, 0)
		m.ObservePage("GET", "/", 200, 0)
		m.ObserveGuard("allow")
		m.ObserveForcedLogout("/")
	})
}
