package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"pinroom/internal/auth"
	"pinroom/internal/httputil"
)

// OptionalAuth verifies a Bearer token when one is present and puts the identity in
// the request context. Anonymous requests pass through; handlers that need a user
// check httputil.GetUserID themselves. A token that fails verification is rejected
// with 401 rather than silently treated as anonymous.
func OptionalAuth(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("token rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithUser(r, claims.GetUserID(), claims.Email, token))
		})
	}
}
