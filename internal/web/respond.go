package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps an operation error to the page status.
func statusFor(err error) int {
	if st := errs.StatusOf(err); st != 0 {
		return st
	}
	switch {
	case errors.Is(err, errs.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrValidation), errors.Is(err, store.ErrSelfDelete):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// fail answers a failed operation. A navigation signalled by the session
// during the call (a forced logout) wins over the error body.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if st := stateFrom(r.Context()); st != nil {
		if loc, ok := st.nav.take(); ok {
			http.Redirect(w, r, loc.String(), http.StatusSeeOther)
			return
		}
	}
	s.log.Debug("page failed", zap.String("path", r.URL.Path), zap.Error(err), requestIDField(r.Context()))
	if msg == "" {
		msg = errs.Message(err, "request failed")
	}
	writeError(w, statusFor(err), msg)
}

// localRedirect accepts only same-site absolute paths.
func localRedirect(target string) (string, bool) {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "", false
	}
	return target, true
}
