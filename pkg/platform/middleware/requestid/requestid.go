// Package requestid assigns a correlation id to every request.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"onboard/pkg/requestcontext"
)

// Header carries the correlation id in both directions.
const Header = "X-Request-ID"

// Middleware reuses an incoming X-Request-ID or mints a UUID, stores it in the
// context and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}
