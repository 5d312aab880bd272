// Package guard implements the pre-navigation checks: authenticated-only,
// guest-only and role-gated. A guard always resolves to a Decision; it never
// returns an error or leaves the navigation pending.
package guard

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/model"
	"github.com/and161185/receivables-client/internal/session"
)

// Route is the navigation target being guarded.
type Route struct {
	Path     string
	FullPath string // path with query, as requested
}

// RouteFromURL builds a Route from a request URL.
func RouteFromURL(u *url.URL) Route {
	return Route{Path: u.Path, FullPath: u.RequestURI()}
}

// Outcome of a guard.
type Outcome int

const (
	Allow Outcome = iota
	Redirect
	Abort
)

// Decision is what the navigation layer must do.
type Decision struct {
	Outcome  Outcome
	Location session.Location // Redirect only
	Status   int              // Abort only
	Message  string           // Abort only
}

// Allowed reports whether navigation may proceed.
func (d Decision) Allowed() bool { return d.Outcome == Allow }

// Guard inspects the session before a navigation completes.
type Guard func(ctx context.Context, to Route) Decision

// Session is what guards need from the session.
type Session interface {
	EnsureUser(ctx context.Context) bool
	IsAuthenticated() bool
	User() *model.User
}

// Evaluate runs guards in order and returns the first non-allow decision.
func Evaluate(ctx context.Context, to Route, guards ...Guard) Decision {
	for _, g := range guards {
		if d := g(ctx, to); !d.Allowed() {
			return d
		}
	}
	return Decision{Outcome: Allow}
}

// Authenticated lets only authenticated sessions through. Others are
// redirected to the login page with the intended destination preserved in
// the "redirect" query parameter.
func Authenticated(s Session, log *zap.Logger) Guard {
	log = orNop(log)
	return func(ctx context.Context, to Route) Decision {
		s.EnsureUser(ctx)
		if s.IsAuthenticated() {
			return Decision{Outcome: Allow}
		}
		loc := session.Location{Path: session.LoginPath, Replace: true}
		if dest := to.FullPath; dest != "" && dest != session.HomePath {
			loc.Query = url.Values{"redirect": {dest}}
		}
		log.Debug("guard: not authenticated", zap.String("path", to.Path))
		return Decision{Outcome: Redirect, Location: loc}
	}
}

// GuestOnly lets only unauthenticated sessions through; authenticated ones go home.
func GuestOnly(s Session, log *zap.Logger) Guard {
	log = orNop(log)
	return func(ctx context.Context, to Route) Decision {
		s.EnsureUser(ctx)
		if !s.IsAuthenticated() {
			return Decision{Outcome: Allow}
		}
		log.Debug("guard: guest page, already authenticated", zap.String("path", to.Path))
		return Decision{Outcome: Redirect, Location: session.Location{Path: session.HomePath, Replace: true}}
	}
}

// Roles lets through authenticated sessions whose user holds one of allowed.
// It does not redirect to login: an unauthenticated session is aborted with
// 403, so Authenticated must run first on the same route.
func Roles(s Session, log *zap.Logger, allowed ...string) Guard {
	log = orNop(log)
	return func(ctx context.Context, to Route) Decision {
		s.EnsureUser(ctx)
		if !s.IsAuthenticated() {
			log.Warn("guard: role check without authentication", zap.String("path", to.Path))
			return forbidden("access denied: authentication and permissions required")
		}
		u := s.User()
		if u == nil {
			return forbidden("access denied: authentication and permissions required")
		}
		if !u.HasAnyRole(allowed...) {
			log.Warn("guard: role not allowed",
				zap.String("path", to.Path),
				zap.String("user_id", u.ID),
				zap.Strings("roles", u.Roles),
				zap.Strings("allowed", allowed),
			)
			return forbidden("access denied: requires one of " + strings.Join(allowed, ", "))
		}
		return Decision{Outcome: Allow}
	}
}

// AdminOnly is Roles restricted to ADMIN.
func AdminOnly(s Session, log *zap.Logger) Guard {
	return Roles(s, log, model.RoleAdmin)
}

// AdminOrAnalyst is Roles restricted to ADMIN and ANALYST.
func AdminOrAnalyst(s Session, log *zap.Logger) Guard {
	return Roles(s, log, model.RoleAdmin, model.RoleAnalyst)
}

func forbidden(msg string) Decision {
	return Decision{Outcome: Abort, Status: http.StatusForbidden, Message: msg}
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
