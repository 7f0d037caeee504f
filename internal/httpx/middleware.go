package httpx

import (
	"net/http"
	"time"
)

// Middleware decorates a handler with one cross-cutting concern. Chain
// composes them outermost-first: Chain(h, a, b) serves requests as a(b(h)).
type Middleware func(http.Handler) http.Handler

func Chain(h http.Handler, mws ...Middleware) http.Handler {
	wrapped := h
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// WithBodyLimit caps request bodies. Booking and setup payloads are a few
// hundred bytes; anything near the limit is not a legitimate client.
func WithBodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// WithTimeout bounds the whole request, availability month scans included.
func WithTimeout(limit time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, limit, "request timed out")
	}
}
