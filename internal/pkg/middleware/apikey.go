package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apperrors "github.com/tracefind/trace-search/internal/pkg/errors"
)

// APIKey returns middleware that requires a matching API key on every
// request. An empty configured key disables the check.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-API-Key")
			if presented == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					presented = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				apperrors.WriteError(w, apperrors.UnauthorizedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
