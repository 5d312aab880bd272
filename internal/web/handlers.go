package web

import (
	"encoding/json"
	"fmt"
	"math"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/format"
	"github.com/and161185/receivables-client/internal/limiter"
	"github.com/and161185/receivables-client/internal/model"
	"github.com/and161185/receivables-client/internal/session"
	"github.com/and161185/receivables-client/internal/store"
)

const maxBody = 1 << 20

func (s *Server) logger(r *http.Request) *zap.Logger {
	return s.log.With(requestIDField(r.Context()))
}

// clientIP is the peer address without port; RealIP has already applied
// forwarding headers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", errs.ErrValidation, err)
	}
	return nil
}

// decodeForm reads a JSON body or a url-encoded form into v via fields.
func decodeForm(w http.ResponseWriter, r *http.Request, v any, fields func(url.Values)) error {
	if isJSON(r) {
		return decodeJSON(w, r, v)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: malformed form: %v", errs.ErrValidation, err)
	}
	fields(r.PostForm)
	return nil
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "login", "redirect": r.URL.Query().Get("redirect")})
}

func (s *Server) registerPage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "register"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	var creds model.Credentials
	err := decodeForm(w, r, &creds, func(f url.Values) {
		creds.Email, creds.Password = f.Get("email"), f.Get("password")
	})
	if err != nil {
		writeError(w, statusFor(err), errs.Message(err, "login failed"))
		return
	}

	ctx := r.Context()
	who, ip := strings.ToLower(strings.TrimSpace(creds.Email)), limiter.HashIP(clientIP(r))
	if ok, retry, lerr := s.logins.Allow(ctx, who, ip); lerr == nil && !ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	if err := st.sess.Login(ctx, creds); err != nil {
		st.nav.take()
		if errs.IsUnauthorized(err) {
			if blocked, _, lerr := s.logins.Failure(ctx, who, ip); lerr == nil && blocked {
				s.logger(r).Warn("login blocked after repeated failures")
			}
		}
		writeError(w, statusFor(err), errs.Message(err, "login failed"))
		return
	}
	_ = s.logins.Success(ctx, who, ip)

	loc, _ := st.nav.take()
	dest := loc.String()
	if d, ok := localRedirect(r.URL.Query().Get("redirect")); ok {
		dest = d
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	var reg model.Registration
	err := decodeForm(w, r, &reg, func(f url.Values) {
		reg.Name, reg.Email, reg.Password = f.Get("name"), f.Get("email"), f.Get("password")
	})
	if err == nil {
		err = st.sess.Register(r.Context(), reg)
	}
	if err != nil {
		st.nav.take()
		writeError(w, statusFor(err), errs.Message(err, "registration failed"))
		return
	}
	loc, _ := st.nav.take()
	http.Redirect(w, r, loc.String(), http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	st.sess.Logout(r.Context())
	loc, ok := st.nav.take()
	if !ok {
		loc = session.Location{Path: session.LoginPath}
	}
	http.Redirect(w, r, loc.String(), http.StatusSeeOther)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  st.sess.User(),
		"state": st.sess.State().String(),
	})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	rs := store.NewReportStore(st.api.Reports, st.sess, s.logger(r))
	if err := rs.FetchDashboardSummary(r.Context()); err != nil {
		s.fail(w, r, err, rs.Err())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":               st.sess.User(),
		"summary":            rs.DashboardSummary(),
		"agingChart":         rs.AgingChart(),
		"totalReceivables":   rs.FormattedTotalReceivables(),
		"overdueReceivables": rs.FormattedOverdueReceivables(),
	})
}

type listQuery struct {
	page, limit int
	sortBy      string
	sortOrder   model.SortOrder
	search      string
}

func parseList(q url.Values) listQuery {
	lq := listQuery{sortBy: q.Get("sortBy"), search: q.Get("search")}
	lq.page, _ = strconv.Atoi(q.Get("page"))
	lq.limit, _ = strconv.Atoi(q.Get("limit"))
	switch o := model.SortOrder(q.Get("sortOrder")); o {
	case model.SortAsc, model.SortDesc:
		lq.sortOrder = o
	}
	return lq
}

func pageView(p store.Pager) map[string]int {
	return map[string]int{"page": p.Page, "perPage": p.PerPage, "total": p.Total, "totalPages": p.TotalPages()}
}

func (s *Server) customers(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	cs := store.NewCustomerStore(st.api.Customers, st.sess, s.logger(r))
	lq := parseList(r.URL.Query())
	cs.SetSearch(lq.search)
	cs.SetSort(lq.sortBy, lq.sortOrder)
	if err := cs.Open(r.Context(), lq.page, lq.limit); err != nil {
		s.fail(w, r, err, cs.Err())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": cs.Customers(), "pager": pageView(cs.Pager())})
}

type invoiceView struct {
	model.CustomerInvoice
	OutstandingLabel string `json:"outstandingLabel"`
	DueDateLabel     string `json:"dueDateLabel"`
	DueLabel         string `json:"dueLabel"`
	StatusLabel      string `json:"statusLabel"`
	CategoryLabel    string `json:"categoryLabel"`
	Recommendation   string `json:"recommendation,omitempty"`
}

func (s *Server) customer(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	cs := store.NewCustomerStore(st.api.Customers, st.sess, s.logger(r))
	d, err := cs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, cs.Err())
		return
	}

	now := time.Now()
	invoices := make([]invoiceView, 0, len(d.Invoices))
	for _, inv := range d.Invoices {
		invoices = append(invoices, invoiceView{
			CustomerInvoice:  inv,
			OutstandingLabel: format.Currency(inv.OutstandingAmount),
			DueDateLabel:     format.Date(inv.DueDate),
			DueLabel:         format.DueDateLabel(inv.DueDate, now),
			StatusLabel:      format.StatusLabel(inv.Status),
			CategoryLabel:    format.OverdueCategoryLabel(inv.OverdueCategory),
			Recommendation:   format.OverdueCategoryRecommendation(inv.OverdueCategory),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customer":     d,
		"invoices":     invoices,
		"totalDebt":    format.Currency(d.Statistics.TotalDebt),
		"overdueDebt":  format.Currency(d.Statistics.OverdueDebt),
		"invoiceCount": format.InvoiceCount(d.Statistics.TotalInvoices),
		"onTimeRate":   format.APIPercent(d.Statistics.OnTimePaymentRate),
	})
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	var in model.UpdateCustomer
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cs := store.NewCustomerStore(st.api.Customers, st.sess, s.logger(r))
	c, err := cs.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err, cs.Err())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	cs := store.NewCustomerStore(st.api.Customers, st.sess, s.logger(r))
	if err := cs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, cs.Err())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) debtWork(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	cs := store.NewCustomerStore(st.api.Customers, st.sess, s.logger(r))
	recs, err := cs.FetchDebtWork(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, cs.Err())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs})
}

func (s *Server) addDebtWork(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	var in model.NewDebtWork
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cs := store.NewCustomerStore(st.api.Customers, st.sess, s.logger(r))
	rec, err := cs.AddDebtWork(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err, cs.Err())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func parseDate(q url.Values, key string) (time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", errs.ErrValidation, key)
	}
	return t, nil
}

// reports is the analytics overview. Reports that loaded are returned even
// when a sibling failed; the failure goes to "error".
func (s *Server) reports(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	q := r.URL.Query()
	var p store.AllParams
	var err error
	if p.Dynamics.StartDate, err = parseDate(q, "startDate"); err == nil {
		if p.Dynamics.EndDate, err = parseDate(q, "endDate"); err == nil {
			p.StructureAsOf, err = parseDate(q, "asOfDate")
		}
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.Concentration.AsOfDate = p.StructureAsOf

	rs := store.NewReportStore(st.api.Reports, st.sess, s.logger(r))
	err = rs.FetchAll(r.Context(), p)
	dash, dyn, str, conc := rs.DashboardSummary(), rs.Dynamics(), rs.Structure(), rs.Concentration()
	if err != nil && (errs.IsUnauthorized(err) || (dash == nil && dyn == nil && str == nil && conc == nil)) {
		s.fail(w, r, err, rs.Err())
		return
	}
	body := map[string]any{
		"summary":          dash,
		"agingChart":       rs.AgingChart(),
		"totalReceivables": rs.FormattedTotalReceivables(),
		"dynamics":         dyn,
		"structure":        str,
		"concentration":    conc,
	}
	if err != nil {
		body["error"] = rs.Err()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) dynamics(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	q := r.URL.Query()
	var p model.DynamicsParams
	var err error
	if p.StartDate, err = parseDate(q, "startDate"); err == nil {
		p.EndDate, err = parseDate(q, "endDate")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rs := store.NewReportStore(st.api.Reports, st.sess, s.logger(r))
	if err := rs.FetchDynamics(r.Context(), p); err != nil {
		s.fail(w, r, err, rs.Err())
		return
	}
	d := rs.Dynamics()
	labels := make([]string, 0, len(d.Dynamics))
	for _, it := range d.Dynamics {
		labels = append(labels, format.PeriodLabel(it.Period))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dynamics":   d,
		"labels":     labels,
		"trendClass": format.TrendClass(d.Summary.Trend),
	})
}

func (s *Server) structure(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	asOf, err := parseDate(r.URL.Query(), "asOfDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rs := store.NewReportStore(st.api.Reports, st.sess, s.logger(r))
	if err := rs.FetchStructure(r.Context(), asOf); err != nil {
		s.fail(w, r, err, rs.Err())
		return
	}
	str := rs.Structure()
	buckets := make([]string, 0, len(str.ByAgingBucket))
	for _, b := range str.ByAgingBucket {
		buckets = append(buckets, format.AgingBucketLabel(b.Bucket))
	}
	writeJSON(w, http.StatusOK, map[string]any{"structure": str, "bucketLabels": buckets})
}

func (s *Server) concentration(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	q := r.URL.Query()
	var p model.ConcentrationParams
	var err error
	if p.AsOfDate, err = parseDate(q, "asOfDate"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if v := q.Get("minPercentage"); v != "" {
		if p.MinPercentage, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "minPercentage must be a number")
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if p.Limit, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
	}

	rs := store.NewReportStore(st.api.Reports, st.sess, s.logger(r))
	if err := rs.FetchConcentration(r.Context(), p); err != nil {
		s.fail(w, r, err, rs.Err())
		return
	}
	c := rs.Concentration()
	writeJSON(w, http.StatusOK, map[string]any{
		"concentration": c,
		"riskClass":     format.ConcentrationRiskClass(format.NormalizeAPIPercent(c.Summary.Top5Concentration)),
	})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	rs := store.NewReportStore(st.api.Reports, st.sess, s.logger(r))
	if err := rs.FetchSummaryReport(r.Context()); err != nil {
		s.fail(w, r, err, rs.Err())
		return
	}
	writeJSON(w, http.StatusOK, rs.SummaryReport())
}

func (s *Server) users(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	us := store.NewAdminUserStore(st.api.Users, st.sess, s.logger(r))
	lq := parseList(r.URL.Query())
	us.SetSort(lq.sortBy, lq.sortOrder)
	if err := us.Open(r.Context(), lq.page, lq.limit); err != nil {
		s.fail(w, r, err, us.Err())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": us.Users(), "pager": pageView(us.Pager())})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	var in model.UpdateUser
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	us := store.NewAdminUserStore(st.api.Users, st.sess, s.logger(r))
	u, err := us.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err, us.Err())
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	us := store.NewAdminUserStore(st.api.Users, st.sess, s.logger(r))
	if err := us.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, us.Err())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
