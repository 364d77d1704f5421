package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	auth   *services.AuthService
	cookie CookieConfig
}

func NewAuthHandler(auth *services.AuthService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &AuthHandler{auth: auth, cookie: cookie}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, s *services.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session, err := h.auth.Signup(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, models.APIResponse{
		Success: true,
		Message: "User created successfully. Check your email for the verification code.",
		Data:    models.AuthResponse{Token: session.Token, User: session.User},
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.auth.VerifyEmail(ctx, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Email verified successfully",
		Data:    user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session, err := h.auth.Login(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Logged in successfully",
		Data:    models.AuthResponse{Token: session.Token, User: session.User},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.auth.Logout(ctx, middleware.GetClaims(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Logged out successfully"))
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.auth.ForgotPassword(ctx, req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Password reset link sent to your email"))
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.auth.ResetPassword(ctx, chi.URLParam(r, "token"), req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Password reset successful"))
}

func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.auth.CheckAuth(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(user))
}
