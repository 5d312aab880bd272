// Package httpclient is the JSON client for the receivables API.
//
// A Client bound to a session attaches the session's bearer token to every
// request and logs the session out when any response is 401, whichever
// caller issued it.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/metrics"
)

const maxErrorBody = 64 << 10

// Session is what the client needs from the session.
type Session interface {
	Token() string
	Logout(ctx context.Context)
}

// Client sends JSON requests relative to a base URL.
type Client struct {
	base    *url.URL
	hc      *http.Client
	log     *zap.Logger
	metrics *metrics.Metrics
	sess    Session
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying client; its transport is wrapped, not replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithSession injects the session bearer token and forces logout on 401.
func WithSession(s Session) Option {
	return func(c *Client) { c.sess = s }
}

// New returns a client for baseURL (e.g. "http://localhost:3001/api/v1").
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{base: base, hc: &http.Client{}, log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}

	next := c.hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	var rt http.RoundTripper = &instrumentTransport{next: next, log: c.log, metrics: c.metrics}
	if c.sess != nil {
		rt = &authTransport{next: rt, sess: c.sess, log: c.log, metrics: c.metrics}
	}
	hc := *c.hc
	hc.Transport = rt
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.hc = &hc
	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Request describes one API call.
type Request struct {
	Method string
	Path   string // relative to the base URL
	Query  url.Values
	Body   any // JSON-encoded when non-nil
	// Bearer overrides the session token for this request.
	Bearer string
}

// Do sends req and decodes a 2xx JSON body into out (when out is non-nil).
// Non-2xx responses are returned as *errs.APIError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	hr, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	hr.Header.Set("Accept", "application/json")
	if req.Body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	if req.Bearer != "" {
		hr.Header.Set("Authorization", "Bearer "+req.Bearer)
	}

	resp, err := c.hc.Do(hr)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, req)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s %s: empty response body", req.Method, req.Path)
		}
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.Path, err)
	}
	return nil
}

// Get is Do with GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post is Do with POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put is Do with PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Delete is Do with DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

func decodeError(resp *http.Response, req Request) error {
	apiErr := &errs.APIError{Status: resp.StatusCode, Method: req.Method, Path: req.Path}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = messageText(payload.Message)
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	}
	return apiErr
}

// messageText accepts "message" as a string or a list of strings.
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
