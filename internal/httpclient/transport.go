package httpclient

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/metrics"
)

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// authTransport injects the session bearer token and logs the session out
// on any 401 response.
type authTransport struct {
	next    http.RoundTripper
	sess    Session
	log     *zap.Logger
	metrics *metrics.Metrics
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" {
		if tok := t.sess.Token(); tok != "" {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := t.next.RoundTrip(req)
	if err == nil && resp.StatusCode == http.StatusUnauthorized {
		t.log.Warn("api answered 401, logging out", zap.String("path", req.URL.Path))
		t.metrics.ObserveForcedLogout(req.URL.Path)
		t.sess.Logout(req.Context())
	}
	return resp, err
}

// instrumentTransport tags requests with an id and records logs and metrics.
// Only metadata is logged, never headers or bodies.
type instrumentTransport struct {
	next    http.RoundTripper
	log     *zap.Logger
	metrics *metrics.Metrics
}

func (t *instrumentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) == "" {
		if id, err := uuid.NewV4(); err == nil {
			req = req.Clone(req.Context())
			req.Header.Set(RequestIDHeader, id.String())
		}
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	dur := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.metrics.ObserveAPI(req.Method, req.URL.Path, status, dur.Seconds())

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", status),
		zap.Duration("dur", dur),
		zap.String("request_id", req.Header.Get(RequestIDHeader)),
	}
	if err != nil {
		t.log.Warn("api", append(fields, zap.Error(err))...)
	} else {
		t.log.Debug("api", fields...)
	}
	return resp, err
}
