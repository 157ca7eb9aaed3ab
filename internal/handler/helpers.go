package handler

import (
	"errors"
	"net/http"

	"pinroom/internal/domain"
	"pinroom/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var (
		conflictErr *domain.ConflictError
		partialErr  *domain.PartialFailureError
		tooLarge    *http.MaxBytesError
	)

	switch {
	case errors.As(err, &partialErr):
		httputil.RespondErrorWithExtras(w, http.StatusMultiStatus, partialErr.Error(), map[string]any{
			"items":     partialErr.Items,
			"succeeded": partialErr.Succeeded,
		})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]any{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		})
	case errors.Is(err, domain.ErrRemote):
		httputil.RespondError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &tooLarge):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondItemized writes an itemized batch result with status on success, or 207
// with the same body when some items failed. Any other error goes through
// handleError.
func respondItemized(w http.ResponseWriter, status int, result any, err error) {
	if err == nil {
		httputil.RespondJSON(w, status, result)
		return
	}
	if errors.Is(err, domain.ErrPartialFailure) {
		httputil.RespondJSON(w, http.StatusMultiStatus, result)
		return
	}
	handleError(w, err)
}

// requireUser returns the authenticated user id, or writes 401
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "sign in required")
		return "", false
	}
	return userID, true
}

// HealthCheck reports liveness
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
