// Package requesttime pins a single "now" per request so the record timestamps
// and audit events written by one call agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"github.com/vishvendra9627/tourist-safety-app/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
