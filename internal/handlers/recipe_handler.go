package handlers

import (
	"net/http"
	"strings"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

type RecipeHandler struct {
	recipes *services.RecipeService
}

func NewRecipeHandler(recipes *services.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := models.RecipeQuery{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.recipes.List(ctx, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}

func (h *RecipeHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.recipes.ListByUser(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrRecipeNotFound)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, err := h.recipes.Get(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(rec))
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.RecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, err := h.recipes.Create(ctx, middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(rec))
}

func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrRecipeNotFound)
	if !ok {
		return
	}
	var req models.RecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, err := h.recipes.Update(ctx, middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(rec))
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrRecipeNotFound)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.recipes.Delete(ctx, middleware.GetUserID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Recipe deleted successfully"))
}

func (h *RecipeHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrRecipeNotFound)
	if !ok {
		return
	}
	var req models.RatingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.recipes.AddRating(ctx, id, middleware.GetUserID(r.Context()), req.Rating)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Rating submitted",
		Data:    res,
	})
}

func (h *RecipeHandler) Comment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrRecipeNotFound)
	if !ok {
		return
	}
	var req models.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	c, err := h.recipes.AddComment(ctx, id, middleware.GetUserID(r.Context()), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(c))
}
