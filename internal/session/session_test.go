package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/model"
	"github.com/and161185/receivables-client/internal/tokenstore"
)

type fakeAPI struct {
	mu sync.Mutex

	meUser  model.User
	meErr   error
	meHook  func()
	meCalls int
	meToken string

	loginResp  model.LoginResponse
	loginErr   error
	loginCalls int
	loginCreds model.Credentials

	registerErr   error
	registerCalls int
}

var _ AuthAPI = (*fakeAPI)(nil)

func (f *fakeAPI) Login(_ context.Context, c model.Credentials) (model.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	f.loginCreds = c
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Register(_ context.Context, r model.Registration) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	return model.User{ID: "new", Name: r.Name, Email: r.Email}, f.registerErr
}

func (f *fakeAPI) Me(_ context.Context, token string) (model.User, error) {
	f.mu.Lock()
	f.meCalls++
	f.meToken = token
	hook := f.meHook
	u, err := f.meUser, f.meErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return u, err
}

type navRecorder struct {
	mu   sync.Mutex
	locs []Location
}

func (n *navRecorder) Navigate(_ context.Context, to Location) {
	n.mu.Lock()
	n.locs = append(n.locs, to)
	n.mu.Unlock()
}

func (n *navRecorder) last() (Location, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.locs) == 0 {
		return Location{}, false
	}
	return n.locs[len(n.locs)-1], true
}

type fixture struct {
	sess   *Session
	api    *fakeAPI
	nav    *navRecorder
	cookie *tokenstore.MemoryBackend
	file   *tokenstore.MemoryBackend
	store  *tokenstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api:    &fakeAPI{},
		nav:    &navRecorder{},
		cookie: tokenstore.NewMemory("cookie"),
		file:   tokenstore.NewMemory("file"),
	}
	f.store = tokenstore.New([]tokenstore.Backend{f.cookie, f.file})
	f.sess = New(f.store, f.api, WithNavigator(f.nav), WithLogger(zaptest.NewLogger(t)))
	return f
}

func unauthorized() error {
	return &errs.APIError{Status: http.StatusUnauthorized, Method: "GET", Path: "/auth/me"}
}

func persisted(t *testing.T, b tokenstore.Backend) string {
	t.Helper()
	tok, err := b.Load(context.Background())
	if errors.Is(err, tokenstore.ErrNoToken) {
		return ""
	}
	require.NoError(t, err)
	return tok
}

func TestIsAuthenticated_RequiresTokenAndUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	assert.False(t, f.sess.IsAuthenticated())
	assert.Equal(t, Anonymous, f.sess.State())

	f.sess.SetUser(&model.User{ID: "u1"})
	assert.False(t, f.sess.IsAuthenticated(), "profile without token")
	assert.Equal(t, Anonymous, f.sess.State())

	f.sess.SetUser(nil)
	require.NoError(t, f.sess.SetToken(ctx, "abc"))
	assert.False(t, f.sess.IsAuthenticated(), "token without profile")
	assert.Equal(t, Indeterminate, f.sess.State())

	f.sess.SetUser(&model.User{ID: "u1"})
	assert.True(t, f.sess.IsAuthenticated())
	assert.Equal(t, Authenticated, f.sess.State())
}

func TestSetToken_PersistsEverywhere(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.sess.SetToken(ctx, "T"))
	assert.Equal(t, "T", persisted(t, f.cookie))
	assert.Equal(t, "T", persisted(t, f.file))

	require.NoError(t, f.sess.SetToken(ctx, ""))
	assert.Empty(t, persisted(t, f.cookie))
	assert.Empty(t, persisted(t, f.file))
	tok, _ := f.store.Read(ctx)
	assert.Empty(t, tok)
}

func TestFetchUser_NoTokenIsNoop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.sess.FetchUser(context.Background())
	assert.Zero(t, f.api.meCalls)
	assert.Equal(t, Anonymous, f.sess.State())
	_, navigated := f.nav.last()
	assert.False(t, navigated)
}

func TestFetchUser_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.meUser = model.User{ID: "u1", Roles: []string{model.RoleAdmin}}

	require.NoError(t, f.sess.SetToken(ctx, "abc"))
	f.sess.FetchUser(ctx)

	assert.Equal(t, "abc", f.api.meToken)
	assert.True(t, f.sess.IsAuthenticated())
	assert.Equal(t, "u1", f.sess.User().ID)
}

func TestFetchUser_UnauthorizedLogsOut(t *testing.T) {
	t.Parallel()

	for _, withUser := range []bool{false, true} {
		ctx := context.Background()
		f := newFixture(t)
		f.api.meErr = unauthorized()

		require.NoError(t, f.sess.SetToken(ctx, "abc"))
		if withUser {
			f.sess.SetUser(&model.User{ID: "u1"})
		}
		f.sess.FetchUser(ctx)

		assert.Empty(t, f.sess.Token())
		assert.Nil(t, f.sess.User())
		assert.Empty(t, persisted(t, f.cookie))
		assert.Empty(t, persisted(t, f.file))

		loc, ok := f.nav.last()
		require.True(t, ok)
		assert.Equal(t, LoginPath, loc.Path)
		assert.True(t, loc.Replace)
	}
}

func TestFetchUser_TransientFailureKeepsToken(t *testing.T) {
	t.Parallel()

	failures := []error{
		&errs.APIError{Status: http.StatusInternalServerError},
		errors.New("dial tcp: connection refused"),
		errors.New("decode: unexpected EOF"),
	}
	for _, failure := range failures {
		ctx := context.Background()
		f := newFixture(t)
		f.api.meErr = failure

		require.NoError(t, f.sess.SetToken(ctx, "abc"))
		f.sess.SetUser(&model.User{ID: "u1"})
		f.sess.FetchUser(ctx)

		assert.Equal(t, "abc", f.sess.Token(), failure.Error())
		assert.Nil(t, f.sess.User())
		assert.Equal(t, Indeterminate, f.sess.State())
		assert.Equal(t, "abc", persisted(t, f.file))
	}
}

func TestFetchUser_DropsStaleResult(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.meUser = model.User{ID: "old"}

	require.NoError(t, f.sess.SetToken(ctx, "first"))
	f.api.meHook = func() { _ = f.sess.SetToken(ctx, "second") }
	f.sess.FetchUser(ctx)

	assert.Equal(t, "second", f.sess.Token())
	assert.Nil(t, f.sess.User())
}

func TestFetchUser_Stale401KeepsNewToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.meErr = unauthorized()

	require.NoError(t, f.sess.SetToken(ctx, "first"))
	f.api.meHook = func() { _ = f.sess.SetToken(ctx, "second") }
	f.sess.FetchUser(ctx)

	assert.Equal(t, "second", f.sess.Token())
	assert.Equal(t, "second", persisted(t, f.cookie))
	_, navigated := f.nav.last()
	assert.False(t, navigated, "no logout redirect for a stale 401")
}

func TestEnsureUser_OncePerLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.meErr = errors.New("timeout")

	assert.False(t, f.sess.EnsureUser(ctx), "no token, nothing to fetch")
	assert.False(t, f.sess.FetchAttempted())

	require.NoError(t, f.sess.SetToken(ctx, "abc"))
	assert.True(t, f.sess.EnsureUser(ctx))
	assert.True(t, f.sess.FetchAttempted())
	assert.False(t, f.sess.EnsureUser(ctx))
	assert.Equal(t, 1, f.api.meCalls)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.loginResp = model.LoginResponse{AccessToken: "T2", User: model.User{ID: "u2", Roles: []string{model.RoleManager}}}

	err := f.sess.Login(ctx, model.Credentials{Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, Authenticated, f.sess.State())
	assert.Equal(t, "T2", f.sess.Token())
	assert.Equal(t, "u2", f.sess.User().ID)
	assert.Equal(t, "T2", persisted(t, f.cookie))
	assert.Equal(t, "T2", persisted(t, f.file))

	loc, ok := f.nav.last()
	require.True(t, ok)
	assert.Equal(t, Location{Path: HomePath, Replace: true}, loc)
}

func TestLogin_FailureClearsAndPropagates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.loginErr = &errs.APIError{Status: http.StatusUnauthorized, Message: "bad credentials"}

	require.NoError(t, f.sess.SetToken(ctx, "previous"))
	f.sess.SetUser(&model.User{ID: "u1"})

	err := f.sess.Login(ctx, model.Credentials{Email: "ann@example.com", Password: "wrong"})
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, "bad credentials", errs.Message(err, ""))
	assert.Equal(t, Anonymous, f.sess.State())
	assert.Nil(t, f.sess.User())
	assert.Empty(t, persisted(t, f.file))
	_, navigated := f.nav.last()
	assert.False(t, navigated)
}

func TestLogin_InvalidCredentialsSkipAPI(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.sess.Login(context.Background(), model.Credentials{Email: "nope"})
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Zero(t, f.api.loginCalls)
}

func TestLogin_EmptyTokenIsFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.api.loginResp = model.LoginResponse{User: model.User{ID: "u1"}}

	err := f.sess.Login(context.Background(), model.Credentials{Email: "a@b.co", Password: "x"})
	require.ErrorIs(t, err, ErrEmptyToken)
	assert.Equal(t, Anonymous, f.sess.State())
	assert.Nil(t, f.sess.User())
}

func TestRegister_LogsInWithSameCredentials(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.loginResp = model.LoginResponse{AccessToken: "T3", User: model.User{ID: "new"}}

	reg := model.Registration{Name: "Ann", Email: "ann@example.com", Password: "secret1"}
	require.NoError(t, f.sess.Register(ctx, reg))

	assert.Equal(t, 1, f.api.registerCalls)
	assert.Equal(t, 1, f.api.loginCalls)
	assert.Equal(t, reg.Credentials(), f.api.loginCreds)
	assert.Equal(t, Authenticated, f.sess.State())
}

func TestRegister_FailureClearsAndPropagates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.registerErr = &errs.APIError{Status: http.StatusConflict, Message: "email taken"}

	require.NoError(t, f.sess.SetToken(ctx, "stale"))
	err := f.sess.Register(ctx, model.Registration{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.ErrorIs(t, err, errs.ErrConflict)
	assert.Zero(t, f.api.loginCalls)
	assert.Equal(t, Anonymous, f.sess.State())
	assert.Empty(t, persisted(t, f.cookie))
}

func TestRegister_LoginFailurePropagates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.api.loginErr = errors.New("gateway timeout")

	err := f.sess.Register(context.Background(), model.Registration{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, Anonymous, f.sess.State())
}

func TestLogout_ClearsAndRedirects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.sess.SetToken(ctx, "abc"))
	f.sess.SetUser(&model.User{ID: "u1"})
	f.sess.Logout(ctx)

	assert.Equal(t, Anonymous, f.sess.State())
	assert.Empty(t, persisted(t, f.cookie))
	assert.Empty(t, persisted(t, f.file))
	loc, _ := f.nav.last()
	assert.Equal(t, Location{Path: LoginPath, Replace: true}, loc)
}

func TestUser_ReturnsCopy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.sess.SetUser(&model.User{ID: "u1", Roles: []string{model.RoleAnalyst}})
	u := f.sess.User()
	u.Roles[0] = model.RoleAdmin
	u.ID = "hacked"

	assert.Equal(t, "u1", f.sess.User().ID)
	assert.Equal(t, []string{model.RoleAnalyst}, f.sess.User().Roles)
}

func TestHasAnyRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.sess.SetUser(&model.User{Roles: []string{model.RoleAdmin}})
	assert.False(t, f.sess.HasAnyRole(model.RoleAdmin), "no token")
	require.NoError(t, f.sess.SetToken(ctx, "abc"))
	assert.True(t, f.sess.HasAnyRole(model.RoleAdmin, model.RoleAnalyst))
	assert.False(t, f.sess.HasAnyRole(model.RoleManager))
}

func TestLocation_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/login", Location{Path: LoginPath}.String())
	loc := Location{Path: LoginPath, Query: url.Values{"redirect": {"/reports?tab=1"}}}
	assert.Equal(t, "/login?redirect=%2Freports%3Ftab%3D1", loc.String())
}

func TestState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "indeterminate", Indeterminate.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "unknown", State(42).String())
}
