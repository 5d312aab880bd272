package session

import (
	"context"

	"go.uber.org/zap"
)

// Hydrate reconciles the persisted token with in-memory state. It runs once
// per application load, before any guard:
//
//  1. read the persisted token;
//  2. install it when it differs from the in-memory token;
//  3. clear an in-memory token that has no persisted counterpart;
//  4. with a token and no profile, fetch the profile once and mark the fetch attempted;
//  5. without a token, make sure no profile is left.
func (s *Session) Hydrate(ctx context.Context) {
	var persisted, source string
	if s.store != nil {
		persisted, source = s.store.Read(ctx)
	}
	current := s.Token()

	switch {
	case persisted != "" && persisted != current:
		s.log.Debug("hydrate: installing persisted token", zap.String("source", source))
		_ = s.SetToken(ctx, persisted)
	case persisted == "" && current != "":
		s.log.Debug("hydrate: clearing token without backing storage")
		_ = s.SetToken(ctx, "")
	}

	if s.Token() == "" {
		s.SetUser(nil)
		s.log.Debug("hydrate: anonymous")
		return
	}
	if s.User() == nil {
		s.EnsureUser(ctx)
	}
	s.log.Debug("hydrate: done", zap.Stringer("state", s.State()))
}
