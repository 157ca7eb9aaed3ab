package handler

import (
	"log/slog"
	"net/http"

	roomsysSvc "pinroom/internal/domain/services/roomsys"
	"pinroom/internal/httputil"
)

// UserHandler serves the signed-in user's profile and account deletion
type UserHandler struct {
	roomService    roomsysSvc.RoomService
	accountService roomsysSvc.AccountService
	logger         *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(roomService roomsysSvc.RoomService, accountService roomsysSvc.AccountService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		roomService:    roomService,
		accountService: accountService,
		logger:         logger,
	}
}

// GetProfile returns the user's rooms and storage totals
// GET /api/users/me
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.roomService.GetProfile(r.Context(), userID, httputil.GetUserEmail(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profile)
}

// DeleteAccount removes the user, their rooms and every stored file
// DELETE /api/users/me
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.accountService.DeleteAccount(r.Context(), userID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
