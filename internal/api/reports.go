package api

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/and161185/receivables-client/internal/model"
)

// Reports is /reports.
type Reports struct{ d Doer }

// DashboardSummary is GET /reports/dashboard/summary.
func (r *Reports) DashboardSummary(ctx context.Context) (model.DashboardSummary, error) {
	var out model.DashboardSummary
	err := get(ctx, r.d, "/reports/dashboard/summary", nil, &out)
	return out, err
}

// Dynamics is GET /reports/receivables-dynamics.
func (r *Reports) Dynamics(ctx context.Context, p model.DynamicsParams) (model.Dynamics, error) {
	q := url.Values{}
	setDate(q, "startDate", p.StartDate)
	setDate(q, "endDate", p.EndDate)
	var out model.Dynamics
	err := get(ctx, r.d, "/reports/receivables-dynamics", q, &out)
	return out, err
}

// Structure is GET /reports/receivables-structure as of asOf (zero: today on the server).
func (r *Reports) Structure(ctx context.Context, asOf time.Time) (model.Structure, error) {
	q := url.Values{}
	setDate(q, "asOfDate", asOf)
	var out model.Structure
	err := get(ctx, r.d, "/reports/receivables-structure", q, &out)
	return out, err
}

// Concentration is GET /reports/debt-concentration.
func (r *Reports) Concentration(ctx context.Context, p model.ConcentrationParams) (model.Concentration, error) {
	q := url.Values{}
	setDate(q, "asOfDate", p.AsOfDate)
	if p.MinPercentage > 0 {
		q.Set("minPercentage", strconv.FormatFloat(p.MinPercentage, 'f', -1, 64))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	var out model.Concentration
	err := get(ctx, r.d, "/reports/debt-concentration", q, &out)
	return out, err
}

// Summary is GET /reports/summary.
func (r *Reports) Summary(ctx context.Context) (model.SummaryReport, error) {
	var out model.SummaryReport
	err := get(ctx, r.d, "/reports/summary", nil, &out)
	return out, err
}
