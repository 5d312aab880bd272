package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/guard"
	"github.com/and161185/receivables-client/internal/model"
	"github.com/and161185/receivables-client/internal/session"
	"github.com/and161185/receivables-client/internal/store"
)

var (
	errLoginRequired   = errors.New("not logged in (run: arc login)")
	errAlreadyLoggedIn = errors.New("already logged in (run: arc logout first)")
)

// ------- navigation -------

// enter treats a command as a navigation to route and runs the guards on it.
func (a *app) enter(ctx context.Context, route string, guards ...guard.Guard) error {
	d := guard.Evaluate(ctx, guard.Route{Path: route, FullPath: route}, guards...)
	switch d.Outcome {
	case guard.Redirect:
		if d.Location.Path == session.LoginPath {
			return errLoginRequired
		}
		return errAlreadyLoggedIn
	case guard.Abort:
		return fmt.Errorf("%w: %s", errs.ErrForbidden, d.Message)
	}
	return nil
}

func (a *app) requireUser(ctx context.Context, route string) error {
	return a.enter(ctx, route, guard.Authenticated(a.sess, a.log))
}

func (a *app) requireAnalyst(ctx context.Context, route string) error {
	return a.enter(ctx, route, guard.Authenticated(a.sess, a.log), guard.AdminOrAnalyst(a.sess, a.log))
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// ------- parsers -------

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", errs.ErrValidation, s)
	}
	return t, nil
}

func sortOrder(s string) (model.SortOrder, error) {
	switch o := model.SortOrder(s); o {
	case "", model.SortAsc, model.SortDesc:
		return o, nil
	}
	return "", fmt.Errorf("%w: order must be asc or desc", errs.ErrValidation)
}

func pagerView(p store.Pager) map[string]int {
	return map[string]int{"page": p.Page, "perPage": p.PerPage, "total": p.Total, "totalPages": p.TotalPages()}
}

// ------- auth -------

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email")
	pass := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := a.enter(ctx, "/register", guard.GuestOnly(a.sess, a.log)); err != nil {
		return err
	}
	if err := a.sess.Register(ctx, model.Registration{Name: *name, Email: *email, Password: *pass}); err != nil {
		return err
	}
	return printJSON(a.out, a.sess.User())
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "email")
	pass := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := a.enter(ctx, "/login", guard.GuestOnly(a.sess, a.log)); err != nil {
		return err
	}
	if err := a.sess.Login(ctx, model.Credentials{Email: *email, Password: *pass}); err != nil {
		return err
	}
	return printJSON(a.out, a.sess.User())
}

func (a *app) logout(ctx context.Context, _ []string) error {
	a.sess.Logout(ctx)
	_, err := fmt.Fprintln(a.out, "ok")
	return err
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	if err := a.requireUser(ctx, "/me"); err != nil {
		return err
	}
	return printJSON(a.out, map[string]any{"user": a.sess.User(), "state": a.sess.State().String()})
}

// ------- reports -------

func (a *app) dashboard(ctx context.Context, _ []string) error {
	if err := a.requireUser(ctx, session.HomePath); err != nil {
		return err
	}
	rs := store.NewReportStore(a.api.Reports, a.sess, a.log)
	if err := rs.FetchDashboardSummary(ctx); err != nil {
		return err
	}
	return printJSON(a.out, map[string]any{
		"summary":            rs.DashboardSummary(),
		"agingChart":         rs.AgingChart(),
		"totalReceivables":   rs.FormattedTotalReceivables(),
		"overdueReceivables": rs.FormattedOverdueReceivables(),
	})
}

func (a *app) dynamics(ctx context.Context, args []string) error {
	fs := a.flags("dynamics")
	start := fs.String("start", "", "period start (YYYY-MM-DD)")
	end := fs.String("end", "", "period end (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	var p model.DynamicsParams
	var err error
	if p.StartDate, err = parseDay(*start); err != nil {
		return err
	}
	if p.EndDate, err = parseDay(*end); err != nil {
		return err
	}
	if err := a.requireAnalyst(ctx, "/reports/dynamics"); err != nil {
		return err
	}
	rs := store.NewReportStore(a.api.Reports, a.sess, a.log)
	if err := rs.FetchDynamics(ctx, p); err != nil {
		return err
	}
	return printJSON(a.out, rs.Dynamics())
}

func (a *app) structure(ctx context.Context, args []string) error {
	fs := a.flags("structure")
	asOf := fs.String("as-of", "", "report date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	day, err := parseDay(*asOf)
	if err != nil {
		return err
	}
	if err := a.requireAnalyst(ctx, "/reports/structure"); err != nil {
		return err
	}
	rs := store.NewReportStore(a.api.Reports, a.sess, a.log)
	if err := rs.FetchStructure(ctx, day); err != nil {
		return err
	}
	return printJSON(a.out, rs.Structure())
}

func (a *app) concentration(ctx context.Context, args []string) error {
	fs := a.flags("concentration")
	asOf := fs.String("as-of", "", "report date (YYYY-MM-DD)")
	minPct := fs.Float64("min", 0, "minimum share, percent")
	limit := fs.Int("limit", 0, "max debtors")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	day, err := parseDay(*asOf)
	if err != nil {
		return err
	}
	if err := a.requireAnalyst(ctx, "/reports/concentration"); err != nil {
		return err
	}
	rs := store.NewReportStore(a.api.Reports, a.sess, a.log)
	if err := rs.FetchConcentration(ctx, model.ConcentrationParams{AsOfDate: day, MinPercentage: *minPct, Limit: *limit}); err != nil {
		return err
	}
	return printJSON(a.out, rs.Concentration())
}

func (a *app) summary(ctx context.Context, _ []string) error {
	if err := a.requireAnalyst(ctx, "/reports/summary"); err != nil {
		return err
	}
	rs := store.NewReportStore(a.api.Reports, a.sess, a.log)
	if err := rs.FetchSummaryReport(ctx); err != nil {
		return err
	}
	return printJSON(a.out, rs.SummaryReport())
}

// reports loads the analytics overview. Reports that loaded are printed even
// when a sibling failed.
func (a *app) reports(ctx context.Context, args []string) error {
	fs := a.flags("reports")
	start := fs.String("start", "", "dynamics start (YYYY-MM-DD)")
	end := fs.String("end", "", "dynamics end (YYYY-MM-DD)")
	asOf := fs.String("as-of", "", "structure and concentration date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	var p store.AllParams
	var err error
	if p.Dynamics.StartDate, err = parseDay(*start); err != nil {
		return err
	}
	if p.Dynamics.EndDate, err = parseDay(*end); err != nil {
		return err
	}
	if p.StructureAsOf, err = parseDay(*asOf); err != nil {
		return err
	}
	p.Concentration.AsOfDate = p.StructureAsOf
	if err := a.requireAnalyst(ctx, "/reports"); err != nil {
		return err
	}

	rs := store.NewReportStore(a.api.Reports, a.sess, a.log)
	err = rs.FetchAll(ctx, p)
	dash, dyn, str, conc := rs.DashboardSummary(), rs.Dynamics(), rs.Structure(), rs.Concentration()
	if err != nil && (errs.IsUnauthorized(err) || (dash == nil && dyn == nil && str == nil && conc == nil)) {
		return err
	}
	out := map[string]any{"summary": dash, "dynamics": dyn, "structure": str, "concentration": conc}
	if err != nil {
		out["error"] = rs.Err()
	}
	return printJSON(a.out, out)
}

// ------- customers -------

func (a *app) customers(ctx context.Context, args []string) error {
	fs := a.flags("customers")
	page := fs.Int("page", 1, "page (1-based)")
	limit := fs.Int("limit", store.DefaultPerPage, "page size")
	sortBy := fs.String("sort", "", "sort field")
	order := fs.String("order", "", "asc or desc")
	search := fs.String("search", "", "search term")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	so, err := sortOrder(*order)
	if err != nil {
		return err
	}
	if err := a.requireUser(ctx, "/customers"); err != nil {
		return err
	}

	cs := store.NewCustomerStore(a.api.Customers, a.sess, a.log)
	cs.SetSearch(*search)
	cs.SetSort(*sortBy, so)
	if err := cs.Open(ctx, *page, *limit); err != nil {
		return err
	}
	return printJSON(a.out, map[string]any{"customers": cs.Customers(), "pager": pagerView(cs.Pager())})
}

// customer shows a customer card; -name/-contact update it and -delete removes it.
func (a *app) customer(ctx context.Context, args []string) error {
	fs := a.flags("customer")
	id := fs.String("id", "", "customer id")
	name := fs.String("name", "", "new name")
	contact := fs.String("contact", "", "new contact info")
	del := fs.Bool("delete", false, "delete the customer")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *id == "" {
		return fmt.Errorf("%w: need -id", errs.ErrValidation)
	}
	var in model.UpdateCustomer
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.Name = name
		case "contact":
			in.ContactInfo = contact
		}
	})
	update := in.Name != nil || in.ContactInfo != nil
	if update && *del {
		return fmt.Errorf("%w: -delete cannot be combined with -name or -contact", errs.ErrValidation)
	}
	if err := a.requireUser(ctx, "/customers/"+*id); err != nil {
		return err
	}

	cs := store.NewCustomerStore(a.api.Customers, a.sess, a.log)
	switch {
	case *del:
		if err := cs.Delete(ctx, *id); err != nil {
			return err
		}
		return printJSON(a.out, map[string]string{"deleted": *id})
	case update:
		c, err := cs.Update(ctx, *id, in)
		if err != nil {
			return err
		}
		return printJSON(a.out, c)
	}
	d, err := cs.Get(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(a.out, d)
}

// debtWork lists the history of a customer, or records an action when -action is given.
func (a *app) debtWork(ctx context.Context, args []string) error {
	fs := a.flags("debt-work")
	id := fs.String("id", "", "customer id")
	action := fs.String("action", "", "action type (CALL, EMAIL, CLAIM, ...)")
	result := fs.String("result", "", "result (CONTACTED, PROMISED_PAY, ...)")
	date := fs.String("date", "", "action date (YYYY-MM-DD)")
	desc := fs.String("description", "", "free text")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *id == "" {
		return fmt.Errorf("%w: need -id", errs.ErrValidation)
	}
	if err := a.requireUser(ctx, "/customers/"+*id+"/debt-work"); err != nil {
		return err
	}
	cs := store.NewCustomerStore(a.api.Customers, a.sess, a.log)

	if *action == "" {
		recs, err := cs.FetchDebtWork(ctx, *id)
		if err != nil {
			return err
		}
		return printJSON(a.out, recs)
	}

	day, err := parseDay(*date)
	if err != nil {
		return err
	}
	rec, err := cs.AddDebtWork(ctx, *id, model.NewDebtWork{
		ActionType:  *action,
		Result:      *result,
		ActionDate:  day,
		Description: *desc,
	})
	if err != nil {
		return err
	}
	return printJSON(a.out, rec)
}

// ------- admin -------

func (a *app) users(ctx context.Context, args []string) error {
	fs := a.flags("users")
	page := fs.Int("page", 1, "page (1-based)")
	limit := fs.Int("limit", store.DefaultPerPage, "page size")
	sortBy := fs.String("sort", "", "sort field")
	order := fs.String("order", "", "asc or desc")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	so, err := sortOrder(*order)
	if err != nil {
		return err
	}
	if err := a.enter(ctx, "/admin/users", guard.Authenticated(a.sess, a.log), guard.AdminOnly(a.sess, a.log)); err != nil {
		return err
	}

	us := store.NewAdminUserStore(a.api.Users, a.sess, a.log)
	us.SetSort(*sortBy, so)
	if err := us.Open(ctx, *page, *limit); err != nil {
		return err
	}
	return printJSON(a.out, map[string]any{"users": us.Users(), "pager": pagerView(us.Pager())})
}
