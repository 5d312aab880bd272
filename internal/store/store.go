// Package store holds the domain stores (reports, customers, admin users).
// Every store reads the bearer token from the session and keeps the
// loading flag and the last user-facing error message next to its data.
package store

import (
	"errors"
	"sync"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/model"
)

// DefaultPerPage is the initial page size of list stores.
const DefaultPerPage = 10

// Messages shown when the API does not supply one.
const (
	MsgNotAuthorized     = "not authorized"
	MsgNotAuthenticated  = "user is not authenticated"
	MsgReportForbidden   = "access denied: you do not have permission to view this report"
	MsgCannotDeleteSelf  = "you cannot delete your own account"
	msgDashboardFallback = "failed to load dashboard data"
)

// ErrSelfDelete is returned when an admin tries to delete the signed-in account.
var ErrSelfDelete = errors.New(MsgCannotDeleteSelf)

// Session is what stores need from the session.
type Session interface {
	Token() string
	IsAuthenticated() bool
	User() *model.User
}

// status is the loading/error state shared by every store.
type status struct {
	mu       sync.Mutex
	inflight int
	err      string
}

func (s *status) begin() {
	s.mu.Lock()
	s.inflight++
	s.err = ""
	s.mu.Unlock()
}

func (s *status) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *status) fail(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

func (s *status) clearErr() { s.fail("") }

// Loading reports whether a request is in flight.
func (s *status) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Err is the last user-facing error message, "" when the last call succeeded.
func (s *status) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// requireToken fails fast when the session has no token.
func (s *status) requireToken(sess Session) error {
	if sess.Token() == "" {
		s.fail(MsgNotAuthorized)
		return errs.ErrNoSession
	}
	return nil
}

func without[T any](items []T, keep func(T) bool) []T {
	out := items[:0:0]
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
