package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/format"
	"github.com/and161185/receivables-client/internal/model"
)

// ReportAPI is the /reports subset used by ReportStore. *api.Reports implements it.
type ReportAPI interface {
	DashboardSummary(ctx context.Context) (model.DashboardSummary, error)
	Dynamics(ctx context.Context, p model.DynamicsParams) (model.Dynamics, error)
	Structure(ctx context.Context, asOf time.Time) (model.Structure, error)
	Concentration(ctx context.Context, p model.ConcentrationParams) (model.Concentration, error)
	Summary(ctx context.Context) (model.SummaryReport, error)
}

// ReportStore holds the analytics reports.
type ReportStore struct {
	status
	api  ReportAPI
	sess Session
	log  *zap.Logger

	summary       *model.DashboardSummary
	dynamics      *model.Dynamics
	structure     *model.Structure
	concentration *model.Concentration
	report        *model.SummaryReport
}

// NewReportStore returns an empty store.
func NewReportStore(a ReportAPI, s Session, log *zap.Logger) *ReportStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportStore{api: a, sess: s, log: log}
}

// loadReport runs one report call and stores its result through set.
// Any failure also clears the previous result; the returned string is the
// user-facing message for that failure.
func loadReport[T any](ctx context.Context, s *ReportStore, name, fallback string, call func(context.Context) (T, error), set func(*T)) (string, error) {
	s.mu.Lock()
	set(nil)
	s.mu.Unlock()

	if !s.sess.IsAuthenticated() || s.sess.Token() == "" {
		return MsgNotAuthenticated, errs.ErrNoSession
	}

	v, err := call(ctx)
	if err != nil {
		msg := errs.Message(err, fallback)
		if errors.Is(err, errs.ErrForbidden) {
			msg = MsgReportForbidden
		}
		s.log.Warn("report fetch failed", zap.String("report", name), zap.Error(err))
		return msg, err
	}
	s.mu.Lock()
	set(&v)
	s.mu.Unlock()
	return "", nil
}

type loadFunc func(context.Context) (string, error)

func (s *ReportStore) run(ctx context.Context, load loadFunc) error {
	s.begin()
	defer s.end()
	msg, err := load(ctx)
	if err != nil {
		s.fail(msg)
	}
	return err
}

func (s *ReportStore) loadDashboard(ctx context.Context) (string, error) {
	return loadReport(ctx, s, "dashboard", msgDashboardFallback, s.api.DashboardSummary,
		func(v *model.DashboardSummary) { s.summary = v })
}

func (s *ReportStore) loadDynamics(p model.DynamicsParams) loadFunc {
	return func(ctx context.Context) (string, error) {
		return loadReport(ctx, s, "dynamics", "failed to load receivables dynamics",
			func(ctx context.Context) (model.Dynamics, error) { return s.api.Dynamics(ctx, p) },
			func(v *model.Dynamics) { s.dynamics = v })
	}
}

func (s *ReportStore) loadStructure(asOf time.Time) loadFunc {
	return func(ctx context.Context) (string, error) {
		return loadReport(ctx, s, "structure", "failed to load receivables structure",
			func(ctx context.Context) (model.Structure, error) { return s.api.Structure(ctx, asOf) },
			func(v *model.Structure) { s.structure = v })
	}
}

func (s *ReportStore) loadConcentration(p model.ConcentrationParams) loadFunc {
	return func(ctx context.Context) (string, error) {
		return loadReport(ctx, s, "concentration", "failed to load debt concentration",
			func(ctx context.Context) (model.Concentration, error) { return s.api.Concentration(ctx, p) },
			func(v *model.Concentration) { s.concentration = v })
	}
}

// FetchDashboardSummary loads /reports/dashboard/summary.
func (s *ReportStore) FetchDashboardSummary(ctx context.Context) error {
	return s.run(ctx, s.loadDashboard)
}

// FetchDynamics loads the receivables dynamics.
func (s *ReportStore) FetchDynamics(ctx context.Context, p model.DynamicsParams) error {
	return s.run(ctx, s.loadDynamics(p))
}

// FetchStructure loads the receivables structure.
func (s *ReportStore) FetchStructure(ctx context.Context, asOf time.Time) error {
	return s.run(ctx, s.loadStructure(asOf))
}

// FetchConcentration loads the debt concentration analysis.
func (s *ReportStore) FetchConcentration(ctx context.Context, p model.ConcentrationParams) error {
	return s.run(ctx, s.loadConcentration(p))
}

// FetchSummaryReport loads /reports/summary.
func (s *ReportStore) FetchSummaryReport(ctx context.Context) error {
	return s.run(ctx, func(ctx context.Context) (string, error) {
		return loadReport(ctx, s, "summary", "failed to load summary report", s.api.Summary,
			func(v *model.SummaryReport) { s.report = v })
	})
}

// AllParams parameterise FetchAll.
type AllParams struct {
	Dynamics      model.DynamicsParams
	StructureAsOf time.Time
	Concentration model.ConcentrationParams
}

// FetchAll loads the dashboard, dynamics, structure and concentration in
// parallel. The fetches are independent: a failed report leaves the others
// loaded. It returns the first failure, and Err carries its message.
func (s *ReportStore) FetchAll(ctx context.Context, p AllParams) error {
	s.begin()
	defer s.end()

	var (
		g        errgroup.Group
		once     sync.Once
		firstMsg string
		firstErr error
	)
	for _, load := range []loadFunc{
		s.loadDashboard,
		s.loadDynamics(p.Dynamics),
		s.loadStructure(p.StructureAsOf),
		s.loadConcentration(p.Concentration),
	} {
		g.Go(func() error {
			msg, err := load(ctx)
			if err != nil {
				once.Do(func() { firstMsg, firstErr = msg, err })
			}
			return err
		})
	}
	if g.Wait() == nil {
		return nil
	}
	s.fail(firstMsg)
	return firstErr
}

// DashboardSummary is the loaded summary, nil when absent.
func (s *ReportStore) DashboardSummary() *model.DashboardSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Dynamics is the loaded dynamics report, nil when absent.
func (s *ReportStore) Dynamics() *model.Dynamics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dynamics
}

// Structure is the loaded structure report, nil when absent.
func (s *ReportStore) Structure() *model.Structure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.structure
}

// Concentration is the loaded concentration report, nil when absent.
func (s *ReportStore) Concentration() *model.Concentration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.concentration
}

// SummaryReport is the loaded summary report, nil when absent.
func (s *ReportStore) SummaryReport() *model.SummaryReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Dataset is one series of a chart.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Chart is chart-ready data.
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// AgingChart turns the aging structure of the dashboard into a chart, nil
// when no summary is loaded.
func (s *ReportStore) AgingChart() *Chart {
	sum := s.DashboardSummary()
	if sum == nil || sum.AgingStructure == nil {
		return nil
	}
	c := &Chart{Datasets: []Dataset{{Label: "Amount by Aging Bucket"}}}
	for _, b := range sum.AgingStructure {
		c.Labels = append(c.Labels, b.Bucket)
		c.Datasets[0].Data = append(c.Datasets[0].Data, b.Amount)
	}
	return c
}

// FormattedTotalReceivables renders the total, "N/A" without a summary.
func (s *ReportStore) FormattedTotalReceivables() string {
	if sum := s.DashboardSummary(); sum != nil {
		return format.Currency(sum.TotalReceivables)
	}
	return "N/A"
}

// FormattedOverdueReceivables renders the overdue total, "N/A" without a summary.
func (s *ReportStore) FormattedOverdueReceivables() string {
	if sum := s.DashboardSummary(); sum != nil {
		return format.Currency(sum.OverdueReceivables)
	}
	return "N/A"
}
