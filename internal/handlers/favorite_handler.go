package handlers

import (
	"net/http"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

type FavoriteHandler struct {
	favorites *services.FavoriteService
}

func NewFavoriteHandler(favorites *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req models.ToggleFavoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.favorites.ToggleFavorite(ctx, middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()), req.RecipeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: res.Message,
		Data:    res,
	})
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.favorites.ListFavorites(ctx, middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}
