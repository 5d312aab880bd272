package api

import (
	"context"
	"net/http"

	"github.com/and161185/receivables-client/internal/httpclient"
	"github.com/and161185/receivables-client/internal/model"
)

// Auth is /auth. The session calls it directly, so its Doer must not be
// bound to a session: a rejected login is not a reason to log out.
type Auth struct{ d Doer }

// Login is POST /auth/login.
func (a *Auth) Login(ctx context.Context, c model.Credentials) (model.LoginResponse, error) {
	var out model.LoginResponse
	err := a.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/auth/login", Body: c}, &out)
	return out, err
}

// Register is POST /auth/register.
func (a *Auth) Register(ctx context.Context, r model.Registration) (model.User, error) {
	var out model.User
	err := a.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/auth/register", Body: r}, &out)
	return out, err
}

// Me is GET /auth/me for token.
func (a *Auth) Me(ctx context.Context, token string) (model.User, error) {
	var out model.User
	err := a.d.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/auth/me", Bearer: token}, &out)
	return out, err
}
