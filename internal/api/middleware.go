/**
 * @description
 * Custom middleware for the HTTP router: caller identification and the
 * internal API key gate for service-to-service endpoints.
 *
 * @notes
 * - Caller identity arrives as an `X-Account-Id` header set by the edge
 *   gateway after authentication. This service trusts the header; it performs
 *   its own role and approval checks on top of it.
 */

package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
)

// AccountIDContextKey is a custom type for the context key to avoid collisions.
type AccountIDContextKey string

const callerAccountKey AccountIDContextKey = "callerAccountID"

// CallerAccountMiddleware extracts the caller's account id from the
// X-Account-Id header and stores it in the request context.
func CallerAccountMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Account-Id")
		if raw == "" {
			http.Error(w, "X-Account-Id header required", http.StatusUnauthorized)
			return
		}
		accountID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "X-Account-Id must be a valid UUID", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), callerAccountKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCallerAccountID retrieves the authenticated caller's account id from the
// request context.
func GetCallerAccountID(ctx context.Context) (uuid.UUID, bool) {
	accountID, ok := ctx.Value(callerAccountKey).(uuid.UUID)
	return accountID, ok
}

// InternalAPIKeyMiddleware guards service-to-service endpoints with a shared
// secret carried in the x-internal-api-key header.
func InternalAPIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				http.Error(w, "Internal endpoints are disabled", http.StatusServiceUnavailable)
				return
			}
			provided := r.Header.Get("x-internal-api-key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				http.Error(w, "Invalid internal API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
