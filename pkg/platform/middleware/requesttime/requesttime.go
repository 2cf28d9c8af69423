// Package requesttime provides middleware for request-scoped time.
// Every evaluation within a single HTTP request uses the same "now", so stage
// resolution, expiration checks and audit timestamps agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"onboard/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
