package api

import (
	"context"
	"net/http"

	"github.com/and161185/receivables-client/internal/httpclient"
	"github.com/and161185/receivables-client/internal/model"
)

// Users is /users (ADMIN only on the server).
type Users struct{ d Doer }

// List is GET /users.
func (u *Users) List(ctx context.Context, p model.ListParams) (model.UserPage, error) {
	var out model.UserPage
	err := get(ctx, u.d, "/users", listQuery(p), &out)
	return out, err
}

// Update is PUT /users/{id}.
func (u *Users) Update(ctx context.Context, id string, in model.UpdateUser) (model.User, error) {
	var out model.User
	err := u.d.Do(ctx, httpclient.Request{Method: http.MethodPut, Path: "/users/" + segment(id), Body: in}, &out)
	return out, err
}

// Delete is DELETE /users/{id}.
func (u *Users) Delete(ctx context.Context, id string) error {
	return u.d.Do(ctx, httpclient.Request{Method: http.MethodDelete, Path: "/users/" + segment(id)}, nil)
}
