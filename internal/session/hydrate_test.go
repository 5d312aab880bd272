package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/receivables-client/internal/model"
	"github.com/and161185/receivables-client/internal/tokenstore"
)

func TestHydrate_NoPersistedToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sess.SetUser(&model.User{ID: "ghost"})

	f.sess.Hydrate(context.Background())

	assert.Equal(t, Anonymous, f.sess.State())
	assert.Nil(t, f.sess.User(), "profile cleared without a token")
	assert.False(t, f.sess.FetchAttempted())
	assert.Zero(t, f.api.meCalls)
}

func TestHydrate_InstallsDurableTokenAndSyncsCookie(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.meUser = model.User{ID: "u1", Roles: []string{model.RoleAdmin}}
	require.NoError(t, f.file.Save(ctx, "T1"))

	f.sess.Hydrate(ctx)

	assert.Equal(t, Authenticated, f.sess.State())
	assert.Equal(t, "T1", f.api.meToken)
	assert.Equal(t, "T1", persisted(t, f.cookie), "cookie reconciled from durable storage")
	assert.True(t, f.sess.FetchAttempted())
	assert.Equal(t, 1, f.api.meCalls)
}

func TestHydrate_CookieWinsOverDurable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.meUser = model.User{ID: "u1"}
	require.NoError(t, f.cookie.Save(ctx, "fromCookie"))
	require.NoError(t, f.file.Save(ctx, "fromFile"))

	f.sess.Hydrate(ctx)

	assert.Equal(t, "fromCookie", f.sess.Token())
	assert.Equal(t, "fromCookie", persisted(t, f.file))
}

func TestHydrate_ClearsStaleInMemoryToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.sess.SetToken(ctx, "stale"))
	require.NoError(t, f.store.Write(ctx, ""))
	f.sess.Hydrate(ctx)

	assert.Equal(t, Anonymous, f.sess.State())
	assert.Zero(t, f.api.meCalls)
}

func TestHydrate_UnauthorizedTokenEndsAnonymous(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.meErr = unauthorized()
	require.NoError(t, f.file.Save(ctx, "T1"))

	f.sess.Hydrate(ctx)

	assert.Equal(t, Anonymous, f.sess.State())
	assert.Empty(t, persisted(t, f.cookie))
	assert.Empty(t, persisted(t, f.file))
	assert.True(t, f.sess.FetchAttempted())
}

func TestHydrate_TransientFailureStaysIndeterminate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.api.meErr = errors.New("connection reset")
	require.NoError(t, f.file.Save(ctx, "T1"))

	f.sess.Hydrate(ctx)

	assert.Equal(t, Indeterminate, f.sess.State())
	assert.Equal(t, "T1", persisted(t, f.file))
	assert.True(t, f.sess.FetchAttempted())
}

func TestHydrate_SkipsFetchWhenProfileLoaded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Write(ctx, "T1"))
	require.NoError(t, f.sess.SetToken(ctx, "T1"))
	f.sess.SetUser(&model.User{ID: "u1"})

	f.sess.Hydrate(ctx)

	assert.Zero(t, f.api.meCalls)
	assert.False(t, f.sess.FetchAttempted())
	assert.Equal(t, Authenticated, f.sess.State())
}

func TestHydrate_IdempotentAcrossReloads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cookie := tokenstore.NewMemory("cookie")
	file := tokenstore.NewMemory("file")
	require.NoError(t, file.Save(ctx, "T1"))
	api := &fakeAPI{meUser: model.User{ID: "u1", Roles: []string{model.RoleAnalyst}}}

	var states []State
	var users []string
	for range 2 {
		store := tokenstore.New([]tokenstore.Backend{cookie, file})
		sess := New(store, api, WithLogger(zaptest.NewLogger(t)))
		sess.Hydrate(ctx)
		states = append(states, sess.State())
		users = append(users, sess.User().ID)
		assert.Equal(t, "T1", sess.Token())
	}

	assert.Equal(t, []State{Authenticated, Authenticated}, states)
	assert.Equal(t, []string{"u1", "u1"}, users)
	assert.Equal(t, 2, api.meCalls, "one fetch per load")
}
