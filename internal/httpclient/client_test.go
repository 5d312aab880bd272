package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/metrics"
)

type fakeSession struct {
	mu      sync.Mutex
	token   string
	logouts int
}

var _ Session = (*fakeSession)(nil)

func (f *fakeSession) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSession) Logout(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.logouts++
}

func (f *fakeSession) logoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts
}

func newClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api/v1/", append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	t.Parallel()

	_, err := New("/api/v1")
	require.Error(t, err)
}

func TestDo_InjectsBearerAndDecodes(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{token: "tok-1"}
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/customers", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		_ = json.NewEncoder(w).Encode(map[string]any{"total": 3})
	}, WithSession(sess))

	var out struct {
		Total int `json:"total"`
	}
	require.NoError(t, c.Get(context.Background(), "/customers", url.Values{"limit": {"10"}}, &out))
	assert.Equal(t, 3, out.Total)
	assert.Zero(t, sess.logoutCount())
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}, WithSession(&fakeSession{}))

	require.NoError(t, c.Delete(context.Background(), "/users/1"))
}

func TestDo_ExplicitBearerWins(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer explicit", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}, WithSession(&fakeSession{token: "session"}))

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "auth/me", Bearer: "explicit"}, &struct{}{})
	require.NoError(t, err)
}

func TestDo_PostsJSONBody(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "a@b.c", in["email"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"u1"}`))
	})

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, c.Post(context.Background(), "/auth/register", map[string]string{"email": "a@b.c"}, &out))
	assert.Equal(t, "u1", out.ID)
}

func TestDo_401LogsOut(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	sess := &fakeSession{token: "expired"}
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized","statusCode":401}`))
	}, WithSession(sess), WithMetrics(m))

	err := c.Get(context.Background(), "/customers/7", nil, &struct{}{})
	require.Error(t, err)
	assert.True(t, errs.IsUnauthorized(err))
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, "Unauthorized", errs.Message(err, ""))
	assert.Equal(t, 1, sess.logoutCount())
	assert.Empty(t, sess.Token())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logouts.WithLabelValues("/api/v1/customers/:id")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/api/v1/customers/:id", "401")))
}

func TestDo_401WithoutSessionIsJustAnError(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	err := c.Get(context.Background(), "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, errs.StatusOf(err))
}

func TestDo_ErrorMessageShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   string
		is     error
	}{
		{"string", http.StatusForbidden, `{"message":"Forbidden resource"}`, "Forbidden resource", errs.ErrForbidden},
		{"list", http.StatusBadRequest, `{"message":["email must be an email","password too short"]}`, "email must be an email; password too short", errs.ErrValidation},
		{"error field", http.StatusNotFound, `{"error":"Not Found"}`, "Not Found", errs.ErrNotFound},
		{"not json", http.StatusConflict, `<html>conflict</html>`, "", errs.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, WithSession(&fakeSession{token: "t"}))

			err := c.Get(context.Background(), "/x", nil, nil)
			var apiErr *errs.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Message)
			assert.ErrorIs(t, err, tc.is)
		})
	}
}

func TestDo_DecodeFailure(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total":`))
	})
	var out map[string]any
	err := c.Get(context.Background(), "/x", nil, &out)
	require.Error(t, err)
	assert.Zero(t, errs.StatusOf(err))
}

func TestDo_Timeout(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, WithTimeout(50*time.Millisecond))

	err := c.Get(context.Background(), "/slow", nil, nil)
	require.Error(t, err)
	assert.Zero(t, errs.StatusOf(err))
}
