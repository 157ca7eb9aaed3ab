package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"pinroom/internal/httputil"
)

// Recovery turns a panicking handler into a 500 problem response. The log line carries
// the matched route and, for room routes, the room key and view session so the failing
// room can be found without the stack.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// net/http uses this to abort a response on purpose
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				attrs := []any{
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
				}
				if r.Pattern != "" {
					attrs = append(attrs, "route", r.Pattern)
				}
				if key := r.PathValue("key"); key != "" {
					attrs = append(attrs, "room_key", key)
				}
				if session := httputil.GetSessionID(r); session != "" {
					attrs = append(attrs, "session_id", session)
				}
				attrs = append(attrs, "stack", string(debug.Stack()))
				logger.Error("handler panicked", attrs...)

				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
