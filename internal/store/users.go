package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/model"
)

// UserAPI is the /users subset used by AdminUserStore. *api.Users implements it.
type UserAPI interface {
	List(ctx context.Context, p model.ListParams) (model.UserPage, error)
	Update(ctx context.Context, id string, in model.UpdateUser) (model.User, error)
	Delete(ctx context.Context, id string) error
}

// AdminUserStore is the paged user list of the admin screen.
type AdminUserStore struct {
	status
	api  UserAPI
	sess Session
	log  *zap.Logger

	users     []model.User
	pager     Pager
	sortBy    string
	sortOrder model.SortOrder
}

// NewAdminUserStore returns an empty store on page 1.
func NewAdminUserStore(a UserAPI, s Session, log *zap.Logger) *AdminUserStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminUserStore{api: a, sess: s, log: log, pager: NewPager(DefaultPerPage)}
}

// SetSort sets the sort used by the next Fetch.
func (s *AdminUserStore) SetSort(by string, order model.SortOrder) {
	s.mu.Lock()
	s.sortBy, s.sortOrder = by, order
	s.mu.Unlock()
}

// Seek positions the pager without loading; non-positive values are ignored.
func (s *AdminUserStore) Seek(page, limit int) {
	s.mu.Lock()
	s.pager.seek(page, limit)
	s.mu.Unlock()
}

// Fetch loads the current page.
func (s *AdminUserStore) Fetch(ctx context.Context) error {
	s.begin()
	defer s.end()
	if err := s.requireToken(s.sess); err != nil {
		return err
	}

	s.mu.Lock()
	p := model.ListParams{Limit: s.pager.PerPage, Offset: s.pager.Offset(), SortBy: s.sortBy, SortOrder: s.sortOrder}
	s.mu.Unlock()

	page, err := s.api.List(ctx, p)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Warn("users fetch failed", zap.Error(err))
		s.err = errs.Message(err, "failed to load users")
		s.users = nil
		s.pager.Total = 0
		return err
	}
	s.users = page.Users
	s.pager.Apply(page.Offset, page.Limit, page.Total)
	return nil
}

// Users is the current page.
func (s *AdminUserStore) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.User(nil), s.users...)
}

// Pager is the current pagination state.
func (s *AdminUserStore) Pager() Pager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager
}

// Open positions the pager at page and limit and loads it. A page past the
// end falls back to the last page.
func (s *AdminUserStore) Open(ctx context.Context, page, limit int) error {
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

// ChangePage moves to page and reloads.
func (s *AdminUserStore) ChangePage(ctx context.Context, page int) (bool, error) {
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

// Update saves a user and replaces its row in the current page.
func (s *AdminUserStore) Update(ctx context.Context, id string, in model.UpdateUser) (*model.User, error) {
	s.clearErr()
	if err := s.requireToken(s.sess); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		s.fail(err.Error())
		return nil, err
	}
	u, err := s.api.Update(ctx, id, in)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Warn("user update failed", zap.String("user_id", id), zap.Error(err))
		s.err = errs.Message(err, "failed to update user")
		return nil, err
	}
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i] = u
			break
		}
	}
	return &u, nil
}

// Delete removes a user. Deleting the signed-in account is refused locally.
func (s *AdminUserStore) Delete(ctx context.Context, id string) error {
	if me := s.sess.User(); me != nil && me.ID == id {
		s.log.Warn("refused to delete own account", zap.String("user_id", id))
		s.fail(MsgCannotDeleteSelf)
		return ErrSelfDelete
	}
	s.clearErr()
	if err := s.requireToken(s.sess); err != nil {
		return err
	}
	if err := s.api.Delete(ctx, id); err != nil {
		s.log.Warn("user delete failed", zap.String("user_id", id), zap.Error(err))
		s.fail(errs.Message(err, "failed to delete user"))
		return err
	}

	s.mu.Lock()
	s.users = without(s.users, func(u model.User) bool { return u.ID != id })
	if s.pager.Total > 0 {
		s.pager.Total--
	}
	stepBack := len(s.users) == 0 && s.pager.Page > 1
	prev := s.pager.Page - 1
	s.mu.Unlock()

	if stepBack {
		_, err := s.ChangePage(ctx, prev)
		return err
	}
	return nil
}
