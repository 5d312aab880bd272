// Package api exposes the receivables REST endpoints as typed calls.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/and161185/receivables-client/internal/httpclient"
	"github.com/and161185/receivables-client/internal/model"
)

// Doer sends one JSON request. *httpclient.Client implements it.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request, out any) error
}

// Client groups the endpoint families over one Doer.
type Client struct {
	Auth      *Auth
	Reports   *Reports
	Customers *Customers
	Users     *Users
}

// New returns typed endpoints over d.
func New(d Doer) *Client {
	return &Client{
		Auth:      &Auth{d: d},
		Reports:   &Reports{d: d},
		Customers: &Customers{d: d},
		Users:     &Users{d: d},
	}
}

func get(ctx context.Context, d Doer, path string, q url.Values, out any) error {
	return d.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: path, Query: q}, out)
}

func listQuery(p model.ListParams) url.Values {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", string(p.SortOrder))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}

func setDate(q url.Values, key string, t time.Time) {
	if !t.IsZero() {
		q.Set(key, t.Format(time.DateOnly))
	}
}

// segment escapes an id for use as one path segment.
func segment(id string) string { return url.PathEscape(id) }
