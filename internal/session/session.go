// Package session holds the authentication state of one application instance:
// the bearer token, the user profile and the one-shot fetch-attempted flag.
//
// Only Session methods mutate that state. Guards, domain stores and the HTTP
// wrapper read it or call the public actions.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/model"
)

// AuthAPI is the subset of the API the session talks to.
type AuthAPI interface {
	// Login exchanges credentials for a token and profile (POST /auth/login).
	Login(ctx context.Context, c model.Credentials) (model.LoginResponse, error)
	// Register creates an account (POST /auth/register).
	Register(ctx context.Context, r model.Registration) (model.User, error)
	// Me loads the profile for token (GET /auth/me).
	Me(ctx context.Context, token string) (model.User, error)
}

// Persister reads and writes the persisted token. *tokenstore.Store implements it.
type Persister interface {
	Read(ctx context.Context) (token, source string)
	Write(ctx context.Context, token string) error
}

// State is the derived session state.
type State int

const (
	// Anonymous: no token.
	Anonymous State = iota
	// Indeterminate: token present, profile not loaded.
	Indeterminate
	// Authenticated: token and profile present.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Indeterminate:
		return "indeterminate"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// ErrEmptyToken is returned by Login when the API answers without a token.
var ErrEmptyToken = errors.New("login response carries no access token")

// Session is the authentication state of one application instance.
type Session struct {
	store Persister
	api   AuthAPI
	nav   Navigator
	log   *zap.Logger

	mu             sync.RWMutex
	token          string
	user           *model.User
	fetchAttempted bool
}

// Option configures a Session.
type Option func(*Session)

// WithNavigator sets where login/logout redirects are signalled.
func WithNavigator(n Navigator) Option {
	return func(s *Session) { s.nav = n }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// New returns an empty (Anonymous) session.
func New(store Persister, api AuthAPI, opts ...Option) *Session {
	s := &Session{store: store, api: api, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Token returns the in-memory bearer token, "" when there is none.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the loaded profile, nil when none is loaded.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

// IsAuthenticated is true iff both a token and a profile are present.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// State reports the derived session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.token == "":
		return Anonymous
	case s.user == nil:
		return Indeterminate
	default:
		return Authenticated
	}
}

// HasAnyRole reports whether the session is authenticated with one of roles.
func (s *Session) HasAnyRole(roles ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user.HasAnyRole(roles...)
}

// FetchAttempted reports whether a profile fetch was already triggered during this load.
func (s *Session) FetchAttempted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchAttempted
}

// SetToken installs token in memory and in every persistence backend.
// An empty token clears them.
func (s *Session) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Write(ctx, token); err != nil {
		s.log.Warn("persist token", zap.Bool("clear", token == ""), zap.Error(err))
		return err
	}
	return nil
}

// SetUser replaces the in-memory profile.
func (s *Session) SetUser(u *model.User) {
	s.mu.Lock()
	s.user = cloneUser(u)
	s.mu.Unlock()
}

// FetchUser loads the profile for the current token. Without a token it
// returns immediately. A 401 logs out; any other failure clears the profile
// and keeps the token so a later fetch can retry. When the token changes while
// the request is in flight the answer is dropped, so a 401 for the old token
// does not log the new one out.
func (s *Session) FetchUser(ctx context.Context) {
	tok := s.Token()
	if tok == "" {
		s.log.Debug("fetch user skipped: no token")
		return
	}

	u, err := s.api.Me(ctx, tok)
	if s.Token() != tok {
		// Session changed while the request was in flight; the answer is stale.
		s.log.Debug("fetch user result dropped: token changed")
		return
	}
	switch {
	case err == nil:
		s.SetUser(&u)
		s.log.Debug("user loaded", zap.String("user_id", u.ID))
	case errs.IsUnauthorized(err):
		s.log.Info("token rejected, logging out")
		s.Logout(ctx)
	default:
		s.log.Warn("fetch user failed, keeping token", zap.Error(err))
		s.SetUser(nil)
	}
}

// EnsureUser issues FetchUser once per load when a token is present, the
// profile is missing and no fetch was attempted yet. It reports whether a
// fetch was issued.
func (s *Session) EnsureUser(ctx context.Context) bool {
	s.mu.Lock()
	need := s.token != "" && s.user == nil && !s.fetchAttempted
	if need {
		s.fetchAttempted = true
	}
	s.mu.Unlock()

	if need {
		s.FetchUser(ctx)
	}
	return need
}

// Login authenticates with c, installs the returned token and profile and
// redirects home. On failure the session is cleared and the error returned.
func (s *Session) Login(ctx context.Context, c model.Credentials) error {
	if err := c.Validate(); err != nil {
		s.clear(ctx)
		return err
	}

	resp, err := s.api.Login(ctx, c)
	if err == nil && resp.AccessToken == "" {
		err = ErrEmptyToken
	}
	if err != nil {
		s.log.Info("login failed", zap.Int("status", errs.StatusOf(err)), zap.Error(err))
		s.clear(ctx)
		return err
	}

	// The in-memory token is installed even if a persistence backend refused it.
	_ = s.SetToken(ctx, resp.AccessToken)
	s.SetUser(&resp.User)
	s.log.Info("logged in", zap.String("user_id", resp.User.ID))
	s.navigate(ctx, Location{Path: HomePath, Replace: true})
	return nil
}

// Register creates an account and then logs in with the same credentials.
// Registration alone does not establish a session.
func (s *Session) Register(ctx context.Context, r model.Registration) error {
	if err := r.Validate(); err != nil {
		s.clear(ctx)
		return err
	}
	if _, err := s.api.Register(ctx, r); err != nil {
		s.log.Info("registration failed", zap.Int("status", errs.StatusOf(err)), zap.Error(err))
		s.clear(ctx)
		return err
	}
	if err := s.Login(ctx, r.Credentials()); err != nil {
		s.clear(ctx)
		return err
	}
	return nil
}

// Logout clears token and profile and redirects to the login page,
// replacing history.
func (s *Session) Logout(ctx context.Context) {
	s.clear(ctx)
	s.log.Info("logged out")
	s.navigate(ctx, Location{Path: LoginPath, Replace: true})
}

func (s *Session) clear(ctx context.Context) {
	_ = s.SetToken(ctx, "")
	s.SetUser(nil)
}

func (s *Session) navigate(ctx context.Context, to Location) {
	if s.nav != nil {
		s.nav.Navigate(ctx, to)
	}
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}
