package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.events.ListUpcoming(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}

func (h *EventHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.events.ListByOrganizer(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrEventNotFound)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ev, err := h.events.Get(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(ev))
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ev, err := h.events.Create(ctx, middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(ev))
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrEventNotFound)
	if !ok {
		return
	}
	var req models.EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ev, err := h.events.Update(ctx, middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(ev))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrEventNotFound)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.events.Delete(ctx, middleware.GetUserID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Event deleted successfully"))
}

func (h *EventHandler) Invite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrEventNotFound)
	if !ok {
		return
	}
	var req models.InviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inviteeID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"userId": "must be a valid id"}))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ev, err := h.events.Invite(ctx, id, middleware.GetUserID(r.Context()), inviteeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Invitation sent",
		Data:    ev,
	})
}

func (h *EventHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.events.Accept, "Invitation accepted")
}

func (h *EventHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.events.Reject, "Invitation rejected")
}

type respondFunc func(ctx context.Context, eventID, userID primitive.ObjectID) (*models.Event, error)

func (h *EventHandler) respond(w http.ResponseWriter, r *http.Request, fn respondFunc, msg string) {
	id, ok := pathID(w, r, "id", services.ErrEventNotFound)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ev, err := fn(ctx, id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: msg, Data: ev})
}

func (h *EventHandler) JoinByToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ev, err := h.events.JoinByToken(ctx, chi.URLParam(r, "token"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Joined event", Data: ev})
}
