package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestRecorder receives finished HTTP requests.
type RequestRecorder interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// unmatchedRoute labels requests that no route matched, keeping label cardinality bounded.
const unmatchedRoute = "unmatched"

// Metrics records the count and duration of requests by their chi route pattern.
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				pattern := rctx.RoutePattern()
				if pattern == "" {
					// RoutePattern trims the root route "/" to "".
					pattern = strings.Join(rctx.RoutePatterns, "")
				}
				if pattern != "" {
					route = pattern
				}
			}
			recorder.ObserveRequest(r.Method, route, status, time.Since(start))
		})
	}
}
