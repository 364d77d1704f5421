package handlers

import (
	"context"
	"net/http"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

type AccountHandler struct {
	users  *services.UserService
	auth   *services.AuthService
	cookie CookieConfig
}

func NewAccountHandler(users *services.UserService, auth *services.AuthService, cookie CookieConfig) *AccountHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &AccountHandler{users: users, auth: auth, cookie: cookie}
}

// DeleteAccount deletes the caller's account and everything it owns after
// re-checking the password, then ends the session.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), services.DefaultAccountTimeout())
	defer cancel()

	result, err := h.users.DeleteOwnAccount(ctx, middleware.GetUserID(r.Context()), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.auth.Logout(ctx, middleware.GetClaims(r.Context())); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("revoke session after account deletion failed")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Account deleted",
		Data:    result,
	})
}
