package api

import (
	"context"
	"net/http"

	"github.com/and161185/receivables-client/internal/httpclient"
	"github.com/and161185/receivables-client/internal/model"
)

// Customers is /customers.
type Customers struct{ d Doer }

// List is GET /customers.
func (c *Customers) List(ctx context.Context, p model.ListParams) (model.CustomerPage, error) {
	var out model.CustomerPage
	err := get(ctx, c.d, "/customers", listQuery(p), &out)
	return out, err
}

// Get is GET /customers/{id}.
func (c *Customers) Get(ctx context.Context, id string) (model.CustomerDetails, error) {
	var out model.CustomerDetails
	err := get(ctx, c.d, "/customers/"+segment(id), nil, &out)
	return out, err
}

// Update is PUT /customers/{id}.
func (c *Customers) Update(ctx context.Context, id string, in model.UpdateCustomer) (model.Customer, error) {
	var out model.Customer
	err := c.d.Do(ctx, httpclient.Request{Method: http.MethodPut, Path: "/customers/" + segment(id), Body: in}, &out)
	return out, err
}

// Delete is DELETE /customers/{id}.
func (c *Customers) Delete(ctx context.Context, id string) error {
	return c.d.Do(ctx, httpclient.Request{Method: http.MethodDelete, Path: "/customers/" + segment(id)}, nil)
}

// DebtWork is GET /customers/{id}/debt-work.
func (c *Customers) DebtWork(ctx context.Context, id string) ([]model.DebtWorkRecord, error) {
	var out []model.DebtWorkRecord
	err := get(ctx, c.d, "/customers/"+segment(id)+"/debt-work", nil, &out)
	return out, err
}

// AddDebtWork is POST /customers/{id}/debt-work.
func (c *Customers) AddDebtWork(ctx context.Context, id string, in model.NewDebtWork) (model.DebtWorkRecord, error) {
	var out model.DebtWorkRecord
	err := c.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/customers/" + segment(id) + "/debt-work", Body: in}, &out)
	return out, err
}
