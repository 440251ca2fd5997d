package http

import "net/http"

// AuthMiddleware validates the authorization token on every API request.
// If the token is missing or invalid, it responds 401 without invoking the
// wrapped handler. Health and metrics endpoints are mounted outside this
// middleware.
func AuthMiddleware(validToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			if header != "Bearer "+validToken {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
