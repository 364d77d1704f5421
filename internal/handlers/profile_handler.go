package handlers

import (
	"net/http"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

// ProfileHandler serves the caller's role profile and inbox.
type ProfileHandler struct {
	users *services.UserService
}

func NewProfileHandler(users *services.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) CreateRoleInfo(w http.ResponseWriter, r *http.Request) {
	var req models.RoleInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	info, err := h.users.CreateRoleInfo(ctx, middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.APIResponse{
		Success: true,
		Message: "Role information created",
		Data:    info,
	})
}

func (h *ProfileHandler) GetRoleInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	info, err := h.users.GetRoleInfo(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(info))
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	info, err := h.users.UpdateProfile(ctx, middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Profile updated",
		Data:    info,
	})
}

func (h *ProfileHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msgs, err := h.users.Inbox(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(msgs))
}

func (h *ProfileHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	msgID, ok := pathID(w, r, "msgId", services.ErrMessageNotFound)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.users.MarkMessageRead(ctx, middleware.GetUserID(r.Context()), msgID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Message marked as read"))
}

func (h *ProfileHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	msgID, ok := pathID(w, r, "msgId", services.ErrMessageNotFound)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.users.DeleteMessage(ctx, middleware.GetUserID(r.Context()), msgID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Message deleted"))
}
