// Package middleware holds the HTTP middleware shared by the API router.
package middleware

import (
	"net/http"
	"strings"

	"crm-campaigns/backend/internal/platform/httpx"
	"crm-campaigns/backend/internal/security"
)

const bearerPrefix = "bearer "

// TokenVerifier validates a bearer token. *security.Verifier satisfies it.
type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

// Auth returns middleware that requires a valid Bearer token and stores the operator in the request context.
// A nil verifier disables the check.
func Auth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			claims, err := v.Verify(token)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			ctx := WithOperator(r.Context(), Operator{ID: claims.Subject, Name: claims.Name})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearer returns the token from an Authorization header value, or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
