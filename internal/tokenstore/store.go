// Package tokenstore persists the bearer token across application loads.
//
// A Store reads from its backends in priority order (the first backend
// holding a token wins) and writes to all of them, so every location the
// current execution context can reach agrees with the in-memory session.
// A backend that is not reachable in the current context reports
// ErrUnavailable and is treated as empty.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Key names the cookie and the durable record holding the token.
const Key = "auth_token"

var (
	// ErrNoToken means the backend holds no token.
	ErrNoToken = errors.New("no token")
	// ErrUnavailable means the backend cannot be reached in this execution context.
	ErrUnavailable = errors.New("storage unavailable")
)

// Backend is one storage location for the token.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string
	// Load returns the stored token or ErrNoToken / ErrUnavailable.
	Load(ctx context.Context) (string, error)
	// Save stores token; an empty token clears the location.
	Save(ctx context.Context, token string) error
}

// BestEffort is implemented by backends whose write failures must not fail a Store write.
type BestEffort interface {
	BestEffort() bool
}

// Store composes backends by priority-ordered read and fan-out write.
type Store struct {
	backends []Backend
	log      *zap.Logger
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store reading backends in the given order.
func New(backends []Backend, opts ...Option) *Store {
	s := &Store{backends: backends, log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Read returns the first token found and the name of the backend holding it.
// Unreachable or unreadable backends count as empty. An expired JWT is
// treated as absent and cleared from every backend.
func (s *Store) Read(ctx context.Context) (token, source string) {
	for _, b := range s.backends {
		tok, err := b.Load(ctx)
		switch {
		case err == nil && tok != "":
			if exp, ok := ExpiryOf(tok); ok && !s.now().Before(exp) {
				s.log.Info("persisted token expired", zap.String("backend", b.Name()), zap.Time("exp", exp))
				if werr := s.Write(ctx, ""); werr != nil {
					s.log.Warn("clear expired token", zap.Error(werr))
				}
				return "", ""
			}
			return tok, b.Name()
		case err == nil, errors.Is(err, ErrNoToken), errors.Is(err, ErrUnavailable):
			continue
		default:
			s.log.Warn("token backend read failed", zap.String("backend", b.Name()), zap.Error(err))
		}
	}
	return "", ""
}

// Write stores token in every backend; an empty token clears them all.
// Failures of best-effort and unreachable backends are logged, not returned.
func (s *Store) Write(ctx context.Context, token string) error {
	var errsOut []error
	for _, b := range s.backends {
		err := b.Save(ctx, token)
		if err == nil || errors.Is(err, ErrUnavailable) {
			continue
		}
		if be, ok := b.(BestEffort); ok && be.BestEffort() {
			s.log.Warn("token backend write failed", zap.String("backend", b.Name()), zap.Error(err))
			continue
		}
		errsOut = append(errsOut, fmt.Errorf("%s: %w", b.Name(), err))
	}
	return errors.Join(errsOut...)
}

// Backends returns the configured backends in priority order.
func (s *Store) Backends() []Backend {
	return append([]Backend(nil), s.backends...)
}
