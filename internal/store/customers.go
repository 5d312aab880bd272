package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/model"
)

// CustomerAPI is the /customers subset used by CustomerStore. *api.Customers implements it.
type CustomerAPI interface {
	List(ctx context.Context, p model.ListParams) (model.CustomerPage, error)
	Get(ctx context.Context, id string) (model.CustomerDetails, error)
	Update(ctx context.Context, id string, in model.UpdateCustomer) (model.Customer, error)
	Delete(ctx context.Context, id string) error
	DebtWork(ctx context.Context, id string) ([]model.DebtWorkRecord, error)
	AddDebtWork(ctx context.Context, id string, in model.NewDebtWork) (model.DebtWorkRecord, error)
}

// CustomerStore is a paged debtor list plus the currently opened debtor.
type CustomerStore struct {
	status
	api  CustomerAPI
	sess Session
	log  *zap.Logger

	customers []model.Customer
	pager     Pager
	sortBy    string
	sortOrder model.SortOrder
	search    string

	current  *model.CustomerDetails
	debtWork []model.DebtWorkRecord
}

// NewCustomerStore returns an empty store on page 1.
func NewCustomerStore(a CustomerAPI, s Session, log *zap.Logger) *CustomerStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CustomerStore{api: a, sess: s, log: log, pager: NewPager(DefaultPerPage)}
}

// SetSort sets the sort used by the next Fetch.
func (s *CustomerStore) SetSort(by string, order model.SortOrder) {
	s.mu.Lock()
	s.sortBy, s.sortOrder = by, order
	s.mu.Unlock()
}

// SetSearch sets the search term used by the next Fetch and returns to page 1.
func (s *CustomerStore) SetSearch(q string) {
	s.mu.Lock()
	s.search = q
	s.pager.Page = 1
	s.mu.Unlock()
}

// Seek positions the pager without loading; non-positive values are ignored.
func (s *CustomerStore) Seek(page, limit int) {
	s.mu.Lock()
	s.pager.seek(page, limit)
	s.mu.Unlock()
}

// Fetch loads the current page.
func (s *CustomerStore) Fetch(ctx context.Context) error {
	s.begin()
	defer s.end()
	if err := s.requireToken(s.sess); err != nil {
		return err
	}

	s.mu.Lock()
	p := model.ListParams{
		Limit:     s.pager.PerPage,
		Offset:    s.pager.Offset(),
		SortBy:    s.sortBy,
		SortOrder: s.sortOrder,
		Search:    s.search,
	}
	s.mu.Unlock()

	page, err := s.api.List(ctx, p)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Warn("customers fetch failed", zap.Error(err))
		s.err = errs.Message(err, "failed to load customers")
		s.customers = nil
		s.pager.Total = 0
		return err
	}
	s.customers = page.Customers
	s.pager.Apply(page.Offset, page.Limit, page.Total)
	return nil
}

// Customers is the current page.
func (s *CustomerStore) Customers() []model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Customer(nil), s.customers...)
}

// Pager is the current pagination state.
func (s *CustomerStore) Pager() Pager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager
}

// Open positions the pager at page and limit and loads it. A page past the
// end falls back to the last page.
func (s *CustomerStore) Open(ctx context.Context, page, limit int) error {
	s.Seek(page, limit)
	if err := s.Fetch(ctx); err != nil {
		return err
	}
	if p := s.Pager(); p.Total > 0 && p.Page > p.TotalPages() {
		_, err := s.ChangePage(ctx, p.TotalPages())
		return err
	}
	return nil
}

// ChangePage moves to page and reloads. It reports false without a request
// when page is out of range or already current.
func (s *CustomerStore) ChangePage(ctx context.Context, page int) (bool, error) {
	s.mu.Lock()
	ok := s.pager.CanGoTo(page)
	if ok {
		s.pager.Page = page
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, s.Fetch(ctx)
}

// Get loads a debtor card.
func (s *CustomerStore) Get(ctx context.Context, id string) (*model.CustomerDetails, error) {
	s.begin()
	defer s.end()
	if err := s.requireToken(s.sess); err != nil {
		return nil, err
	}
	d, err := s.api.Get(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = errs.Message(err, "failed to load customer")
		s.current = nil
		return nil, err
	}
	s.current = &d
	return &d, nil
}

// Current is the last debtor card loaded by Get.
func (s *CustomerStore) Current() *model.CustomerDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update saves a debtor and replaces its row in the current page.
func (s *CustomerStore) Update(ctx context.Context, id string, in model.UpdateCustomer) (*model.Customer, error) {
	s.clearErr()
	if err := s.requireToken(s.sess); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		s.fail(err.Error())
		return nil, err
	}
	c, err := s.api.Update(ctx, id, in)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Warn("customer update failed", zap.String("customer_id", id), zap.Error(err))
		s.err = errs.Message(err, "failed to update customer")
		return nil, err
	}
	for i := range s.customers {
		if s.customers[i].ID == id {
			s.customers[i] = c
			break
		}
	}
	return &c, nil
}

// Delete removes a debtor. When the current page empties, the store steps
// back one page and reloads.
func (s *CustomerStore) Delete(ctx context.Context, id string) error {
	s.clearErr()
	if err := s.requireToken(s.sess); err != nil {
		return err
	}
	if err := s.api.Delete(ctx, id); err != nil {
		s.log.Warn("customer delete failed", zap.String("customer_id", id), zap.Error(err))
		s.fail(errs.Message(err, "failed to delete customer"))
		return err
	}

	s.mu.Lock()
	s.customers = without(s.customers, func(c model.Customer) bool { return c.ID != id })
	if s.pager.Total > 0 {
		s.pager.Total--
	}
	stepBack := len(s.customers) == 0 && s.pager.Page > 1
	prev := s.pager.Page - 1
	s.mu.Unlock()

	if stepBack {
		_, err := s.ChangePage(ctx, prev)
		return err
	}
	return nil
}

// FetchDebtWork loads the collections history of a debtor.
func (s *CustomerStore) FetchDebtWork(ctx context.Context, id string) ([]model.DebtWorkRecord, error) {
	s.begin()
	defer s.end()
	if err := s.requireToken(s.sess); err != nil {
		return nil, err
	}
	recs, err := s.api.DebtWork(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = errs.Message(err, "failed to load debt work history")
		s.debtWork = nil
		return nil, err
	}
	s.debtWork = recs
	return append([]model.DebtWorkRecord(nil), recs...), nil
}

// AddDebtWork records a collections action and appends it to the loaded history.
func (s *CustomerStore) AddDebtWork(ctx context.Context, id string, in model.NewDebtWork) (*model.DebtWorkRecord, error) {
	s.clearErr()
	if err := s.requireToken(s.sess); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		s.fail(err.Error())
		return nil, err
	}
	rec, err := s.api.AddDebtWork(ctx, id, in)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = errs.Message(err, "failed to save debt work")
		return nil, err
	}
	s.debtWork = append(s.debtWork, rec)
	return &rec, nil
}

// DebtWork is the loaded collections history.
func (s *CustomerStore) DebtWork() []model.DebtWorkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DebtWorkRecord(nil), s.debtWork...)
}
