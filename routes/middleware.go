package routes

import (
	"net/http"
	"os"
	"strings"
)

// RequireOperator guards the round-control and registry endpoints with the
// ADMIN_API_TOKEN bearer token. An empty token disables the check (local
// development); real auth lives in the fronting gateway.
func RequireOperator(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := os.Getenv("ADMIN_API_TOKEN")
		if token == "" {
			next(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success": false, "message": "Not authorized"}`))
			return
		}
		next(w, r)
	}
}
