// Package web is the server-rendered front end (backend-for-frontend). Each
// page request gets its own session, hydrated from the token cookie, and is
// admitted or diverted by the route guards before the handler runs.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/api"
	"github.com/and161185/receivables-client/internal/guard"
	"github.com/and161185/receivables-client/internal/httpclient"
	"github.com/and161185/receivables-client/internal/limiter"
	"github.com/and161185/receivables-client/internal/metrics"
	"github.com/and161185/receivables-client/internal/session"
)

// Options configure the server.
type Options struct {
	APIBase      string
	SecureCookie bool
	Timeout      time.Duration
	// HTTPClient carries calls to the API; nil means a default client.
	HTTPClient *http.Client
	// LoginLimiter throttles failed logins per email and client address;
	// nil means an in-memory limiter with the default policy.
	LoginLimiter limiter.Limiter
	// AuthRate and AuthBurst bound login and registration requests per
	// client address; zero means 1/s with bursts of 10.
	AuthRate  float64
	AuthBurst int
}

// Default login throttling: 5 rejected attempts in 15 minutes block the
// (email, address) pair for 15 minutes.
const (
	loginWindow   = 15 * time.Minute
	loginMaxFails = 5
	loginBlockFor = 15 * time.Minute
)

// Server wires per-request sessions to the API.
type Server struct {
	opts     Options
	log      *zap.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	auth     *api.Auth
	logins   limiter.Limiter
	rate     *limiter.Rate
}

// New builds a server. Metrics are served from gatherer; both may be nil.
func New(opts Options, log *zap.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.AuthRate <= 0 {
		opts.AuthRate = 1
	}
	if opts.AuthBurst <= 0 {
		opts.AuthBurst = 10
	}
	if opts.LoginLimiter == nil {
		opts.LoginLimiter = limiter.NewMemory(loginWindow, loginMaxFails, loginBlockFor)
	}
	// Auth calls run without a session binding: a rejected login is not a
	// reason to log out, and /auth/me failures are handled by the session.
	raw, err := httpclient.New(opts.APIBase,
		httpclient.WithHTTPClient(opts.HTTPClient),
		httpclient.WithTimeout(opts.Timeout),
		httpclient.WithLogger(log),
		httpclient.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	return &Server{
		opts:     opts,
		log:      log,
		metrics:  m,
		gatherer: gatherer,
		auth:     api.New(raw).Auth,
		logins:   opts.LoginLimiter,
		rate:     limiter.NewRate(opts.AuthRate, opts.AuthBurst),
	}, nil
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))
	r.Use(s.observePages)

	r.Get("/healthz", health)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Post("/logout", s.logout)

		r.Group(func(r chi.Router) {
			r.Use(s.guarded(func(sess guard.Session) []guard.Guard {
				return []guard.Guard{guard.GuestOnly(sess, s.log)}
			}))
			r.Get("/login", s.loginPage)
			r.With(s.throttle).Post("/login", s.login)
			r.Get("/register", s.registerPage)
			r.With(s.throttle).Post("/register", s.register)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.guarded(func(sess guard.Session) []guard.Guard {
				return []guard.Guard{guard.Authenticated(sess, s.log)}
			}))
			r.Get("/", s.dashboard)
			r.Get("/me", s.me)
			r.Get("/customers", s.customers)
			r.Get("/customers/{id}", s.customer)
			r.Put("/customers/{id}", s.updateCustomer)
			r.Delete("/customers/{id}", s.deleteCustomer)
			r.Get("/customers/{id}/debt-work", s.debtWork)
			r.Post("/customers/{id}/debt-work", s.addDebtWork)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.guarded(func(sess guard.Session) []guard.Guard {
				return []guard.Guard{guard.Authenticated(sess, s.log), guard.AdminOrAnalyst(sess, s.log)}
			}))
			r.Get("/reports", s.reports)
			r.Get("/reports/dynamics", s.dynamics)
			r.Get("/reports/structure", s.structure)
			r.Get("/reports/concentration", s.concentration)
			r.Get("/reports/summary", s.summary)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.guarded(func(sess guard.Session) []guard.Guard {
				return []guard.Guard{guard.Authenticated(sess, s.log), guard.AdminOnly(sess, s.log)}
			}))
			r.Get("/admin/users", s.users)
			r.Put("/admin/users/{id}", s.updateUser)
			r.Delete("/admin/users/{id}", s.deleteUser)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

// NewHTTPServer wraps the router with the timeouts used in production.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

var _ session.AuthAPI = (*api.Auth)(nil)
