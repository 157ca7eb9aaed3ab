package httputil

import (
	"context"
	"net/http"
	"strings"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey      contextKey = "userID"
	userEmailKey   contextKey = "userEmail"
	accessTokenKey contextKey = "accessToken"
)

// SessionHeader carries the per-tab view session id
const SessionHeader = "X-Session-ID"

// WithUser adds the authenticated identity and its bearer token to the request context
func WithUser(r *http.Request, userID, email, accessToken string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, userEmailKey, email)
	ctx = context.WithValue(ctx, accessTokenKey, accessToken)
	return r.WithContext(ctx)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// GetUserEmail retrieves the authenticated email, or empty string
func GetUserEmail(r *http.Request) string {
	email, _ := r.Context().Value(userEmailKey).(string)
	return email
}

// GetAccessToken retrieves the verified bearer token, or empty string
func GetAccessToken(r *http.Request) string {
	token, _ := r.Context().Value(accessTokenKey).(string)
	return token
}

// GetSessionID returns the X-Session-ID header. Requests without one share no PIN
// cache entries.
func GetSessionID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}
