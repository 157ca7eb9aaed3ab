package handler

import (
	"log/slog"
	"net/http"

	roomsysSvc "pinroom/internal/domain/services/roomsys"
	"pinroom/internal/httputil"
)

// AuthHandler proxies sign-up, sign-in and sign-out to the account service
type AuthHandler struct {
	accountService roomsysSvc.AccountService
	logger         *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accountService roomsysSvc.AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// SignUp registers an account and returns its session
// POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req roomsysSvc.CredentialsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	session, err := h.accountService.SignUp(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, session)
}

// SignIn exchanges credentials for a session
// POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req roomsysSvc.CredentialsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	session, err := h.accountService.SignIn(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// SignOut revokes the caller's session
// POST /api/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.accountService.SignOut(r.Context(), httputil.GetAccessToken(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
