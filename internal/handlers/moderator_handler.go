package handlers

import (
	"net/http"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

// ModeratorHandler serves the moderator console: history appends, content
// and account removal, and the user/warning listings.
type ModeratorHandler struct {
	moderation *services.ModerationService
}

func NewModeratorHandler(moderation *services.ModerationService) *ModeratorHandler {
	return &ModeratorHandler{moderation: moderation}
}

func (h *ModeratorHandler) AddPassedReport(w http.ResponseWriter, r *http.Request) {
	var req models.PassedReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.moderation.AddPassedReportHistory(ctx, middleware.GetUserID(r.Context()), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Passed report recorded"))
}

func (h *ModeratorHandler) AddWarning(w http.ResponseWriter, r *http.Request) {
	var req models.WarningRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.moderation.AddWarning(ctx, middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Warning recorded",
		Data:    res,
	})
}

func (h *ModeratorHandler) AddDeletedUserHistory(w http.ResponseWriter, r *http.Request) {
	var req models.DeletedUserHistoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.moderation.AddDeletedUserHistory(ctx, middleware.GetUserID(r.Context()), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Deleted user recorded"))
}

func (h *ModeratorHandler) AddDeletedRecipeHistory(w http.ResponseWriter, r *http.Request) {
	var req models.DeletedRecipeHistoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.moderation.AddDeletedRecipeHistory(ctx, middleware.GetUserID(r.Context()), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Deleted recipe recorded"))
}

func (h *ModeratorHandler) AddDeletedEventHistory(w http.ResponseWriter, r *http.Request) {
	var req models.DeletedEventHistoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.moderation.AddDeletedEventHistory(ctx, middleware.GetUserID(r.Context()), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Deleted event recorded"))
}

func (h *ModeratorHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrUserNotFound)
	if !ok {
		return
	}
	var req models.DeleteUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), services.DefaultAccountTimeout())
	defer cancel()

	res, err := h.moderation.DeleteUser(ctx, middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "User deleted",
		Data:    res,
	})
}

func (h *ModeratorHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrRecipeNotFound)
	if !ok {
		return
	}
	var req models.DeleteContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.moderation.DeleteRecipe(ctx, middleware.GetUserID(r.Context()), id, req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Recipe deleted"))
}

func (h *ModeratorHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrEventNotFound)
	if !ok {
		return
	}
	var req models.DeleteContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.moderation.DeleteEvent(ctx, middleware.GetUserID(r.Context()), id, req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Event deleted"))
}

func (h *ModeratorHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, err := h.moderation.History(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(rec))
}

func (h *ModeratorHandler) Users(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.moderation.ListUsers(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}

func (h *ModeratorHandler) Warnings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId", services.ErrUserNotFound)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.moderation.Warnings(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}
