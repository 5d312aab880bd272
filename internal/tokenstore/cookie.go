package tokenstore

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// CookieOptions defines how the token cookie is issued.
type CookieOptions struct {
	Secure   bool // set in production
	HTTPOnly bool
	Domain   string
}

// CookieBackend reads the token cookie from an inbound request and writes it
// to the response. A value saved during the request is what later loads in
// the same request observe.
type CookieBackend struct {
	r    *http.Request
	w    http.ResponseWriter
	opts CookieOptions

	mu      sync.Mutex
	written bool
	value   string
}

// NewCookie binds a cookie backend to one request/response pair.
// Either side may be nil: without a request nothing is read, without a
// response writes are unavailable.
func NewCookie(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieBackend {
	return &CookieBackend{r: r, w: w, opts: opts}
}

func (c *CookieBackend) Name() string { return "cookie" }

func (c *CookieBackend) Load(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.written {
		if c.value == "" {
			return "", ErrNoToken
		}
		return c.value, nil
	}
	if c.r == nil {
		return "", ErrUnavailable
	}
	ck, err := c.r.Cookie(Key)
	if err != nil || ck.Value == "" {
		return "", ErrNoToken
	}
	return ck.Value, nil
}

func (c *CookieBackend) Save(_ context.Context, token string) error {
	if c.w == nil {
		return ErrUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dropSetCookie(c.w.Header(), Key)
	ck := &http.Cookie{
		Name:     Key,
		Value:    token,
		Path:     "/",
		Domain:   c.opts.Domain,
		Secure:   c.opts.Secure,
		HttpOnly: c.opts.HTTPOnly,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		ck.MaxAge = -1
	}
	http.SetCookie(c.w, ck)
	c.written = true
	c.value = token
	return nil
}

// dropSetCookie removes earlier Set-Cookie lines for name so the response
// carries only the latest value.
func dropSetCookie(h http.Header, name string) {
	lines := h.Values("Set-Cookie")
	if len(lines) == 0 {
		return
	}
	h.Del("Set-Cookie")
	for _, l := range lines {
		if !strings.HasPrefix(l, name+"=") {
			h.Add("Set-Cookie", l)
		}
	}
}
