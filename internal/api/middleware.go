package api

import (
	"net/http"
	"strings"
)

// RequireAPIKey guards agent-facing endpoints. It accepts the key via the
// X-Api-Key header or an Authorization bearer token.
func RequireAPIKey(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(expected) == "" {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_misconfigured"})
				return
			}

			got := r.Header.Get("X-Api-Key")
			if got == "" {
				auth := r.Header.Get("Authorization")
				if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
					got = auth[7:]
				}
			}

			if got != expected {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
