package middleware

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestObserver receives one call per finished request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// WithMetrics reports requests to obs, labelled by chi route pattern so
// ids do not blow up label cardinality.
func WithMetrics(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			obs.ObserveRequest(r.Method, routePattern(r), status(ww), time.Since(start))
		})
	}
}
