package web

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/api"
	"github.com/and161185/receivables-client/internal/httpclient"
	"github.com/and161185/receivables-client/internal/session"
	"github.com/and161185/receivables-client/internal/tokenstore"
)

type ctxKey string

const stateKey ctxKey = "arc.request"

// reqState is the per-request application instance.
type reqState struct {
	sess *session.Session
	nav  *navRecorder
	api  *api.Client
}

func withState(ctx context.Context, st *reqState) context.Context {
	return context.WithValue(ctx, stateKey, st)
}

func stateFrom(ctx context.Context) *reqState {
	st, _ := ctx.Value(stateKey).(*reqState)
	return st
}

// navRecorder keeps the last navigation signalled by the session.
type navRecorder struct {
	mu  sync.Mutex
	loc *session.Location
}

func (n *navRecorder) Navigate(_ context.Context, to session.Location) {
	n.mu.Lock()
	n.loc = &to
	n.mu.Unlock()
}

func (n *navRecorder) take() (session.Location, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.loc == nil {
		return session.Location{}, false
	}
	loc := *n.loc
	n.loc = nil
	return loc, true
}

// withSession hydrates a fresh session from the request cookie.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := s.log.With(requestIDField(ctx))

		store := tokenstore.New(
			[]tokenstore.Backend{tokenstore.NewCookie(w, r, tokenstore.CookieOptions{Secure: s.opts.SecureCookie, HTTPOnly: true})},
			tokenstore.WithLogger(log),
		)
		nav := &navRecorder{}
		sess := session.New(store, s.auth, session.WithNavigator(nav), session.WithLogger(log))
		sess.Hydrate(ctx)
		// Hydration only reconciles state; where to go is up to the guards.
		nav.take()

		hc, err := httpclient.New(s.opts.APIBase,
			httpclient.WithHTTPClient(s.opts.HTTPClient),
			httpclient.WithTimeout(s.opts.Timeout),
			httpclient.WithLogger(log),
			httpclient.WithMetrics(s.metrics),
			httpclient.WithSession(sess),
		)
		if err != nil {
			log.Error("api client", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		st := &reqState{sess: sess, nav: nav, api: api.New(hc)}
		next.ServeHTTP(w, r.WithContext(withState(ctx, st)))
	})
}
