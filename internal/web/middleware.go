package web

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/guard"
)

func requestIDField(ctx context.Context) zap.Field {
	return zap.String("request_id", chimiddleware.GetReqID(ctx))
}

// Logging logs one line per request.
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// metadata only, no payloads
			log.Info("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", statusOf(ww)),
				zap.Duration("dur", time.Since(start)),
				zap.String("peer", r.RemoteAddr),
				requestIDField(r.Context()),
			)
		})
	}
}

// Recover turns a panic into a 500.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic",
						zap.Any("reason", rec),
						zap.ByteString("stack", debug.Stack()),
						zap.String("path", r.URL.Path),
					)
					writeError(w, http.StatusInternalServerError, "internal")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func statusOf(ww chimiddleware.WrapResponseWriter) int {
	if st := ww.Status(); st != 0 {
		return st
	}
	return http.StatusOK
}

// observePages records page metrics under the matched route pattern.
func (s *Server) observePages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.ObservePage(r.Method, route, statusOf(ww), time.Since(start).Seconds())
	})
}

// guarded runs the guards built by mk against the request session and
// answers redirects with 303 and aborts with a JSON error.
func (s *Server) guarded(mk func(guard.Session) []guard.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := stateFrom(r.Context())
			d := guard.Evaluate(r.Context(), guard.RouteFromURL(r.URL), mk(st.sess)...)
			// Guards may trigger a forced logout; the decision already covers it.
			st.nav.take()

			switch d.Outcome {
			case guard.Redirect:
				s.metrics.ObserveGuard("redirect")
				http.Redirect(w, r, d.Location.String(), http.StatusSeeOther)
			case guard.Abort:
				s.metrics.ObserveGuard("abort")
				writeError(w, d.Status, d.Message)
			default:
				s.metrics.ObserveGuard("allow")
				next.ServeHTTP(w, r)
			}
		})
	}
}

// throttle answers 429 once the client address has used up its request budget.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rate.Allow(clientIP(r)) {
			s.logger(r).Warn("throttled", zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
