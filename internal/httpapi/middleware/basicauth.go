package middleware

import (
	"crypto/subtle"
	"net/http"
)

// BasicAuth gates requests with HTTP Basic Auth, constant-time compared
// against a single configured user:pass (spec §4.7). Replaces the
// teacher's bearer/API-key RequireAny/RequireAdmin — same
// option-returns-passthrough-if-unconfigured idiom: an empty user
// disables the gate entirely (local dev, or deployments with no
// PASSWORD_PROTECTION set).
func BasicAuth(user, pass string) func(http.Handler) http.Handler {
	enabled := user != ""
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser, gotPass, ok := r.BasicAuth()
			if ok && constantTimeEqual(gotUser, user) && constantTimeEqual(gotPass, pass) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="restricted"`)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		})
	}
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
