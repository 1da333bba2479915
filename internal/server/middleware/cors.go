package middleware

import (
	"net/http"
	"strings"
)

// CORS allows the dashboard at origin to call the API. An empty origin or "*" allows any origin.
func CORS(origin string) func(http.Handler) http.Handler {
	origin = strings.TrimSpace(origin)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqOrigin := r.Header.Get("Origin")
			if reqOrigin != "" && (origin == "" || origin == "*" || origin == reqOrigin) {
				w.Header().Set("Access-Control-Allow-Origin", reqOrigin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
