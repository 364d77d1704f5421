package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

var ErrCooksOnly = newError(ErrForbidden, "Only cooks can create recipes")

type RecipeService struct {
	store storage.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewRecipeService(store storage.Store) *RecipeService {
	return &RecipeService{
		store: store,
		log:   logging.Component("recipes"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *RecipeService) Create(ctx context.Context, userID primitive.ObjectID, role models.Role, req models.RecipeRequest) (*models.Recipe, error) {
	if role != models.RoleCook {
		return nil, ErrCooksOnly
	}
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}
	now := s.now()
	r := &models.Recipe{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		Title:        req.Title,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		PrepTime:     req.PrepTime,
		Category:     req.Category,
		Image:        req.Image,
		Video:        req.Video,
		Comments:     []models.Comment{},
		Ratings:      []models.Rating{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateRecipe(ctx, r); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	s.log.Info().Str("recipe_id", r.ID.Hex()).Str("user_id", userID.Hex()).Msg("recipe created")
	return r, nil
}

func (s *RecipeService) Get(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	return getRecipe(ctx, s.store, id)
}

func (s *RecipeService) List(ctx context.Context, q models.RecipeQuery) ([]*models.Recipe, error) {
	return s.store.ListRecipes(ctx, q)
}

func (s *RecipeService) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Recipe, error) {
	return s.store.ListRecipesByUser(ctx, userID)
}

// Update replaces the editable fields of a recipe the caller owns.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID primitive.ObjectID, req models.RecipeRequest) (*models.Recipe, error) {
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}
	r, err := s.owned(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	r.Title = req.Title
	r.Ingredients = req.Ingredients
	r.Instructions = req.Instructions
	r.PrepTime = req.PrepTime
	r.Category = req.Category
	r.Image = req.Image
	r.Video = req.Video
	r.UpdatedAt = s.now()
	if err := s.store.UpdateRecipe(ctx, r); err != nil {
		return nil, mapRecipeErr(err)
	}
	return r, nil
}

func (s *RecipeService) Delete(ctx context.Context, userID, recipeID primitive.ObjectID) error {
	if _, err := s.owned(ctx, userID, recipeID); err != nil {
		return err
	}
	return mapRecipeErr(s.store.DeleteRecipe(ctx, recipeID))
}

func (s *RecipeService) owned(ctx context.Context, userID, recipeID primitive.ObjectID) (*models.Recipe, error) {
	r, err := getRecipe(ctx, s.store, recipeID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrNotOwner
	}
	return r, nil
}

// AddComment appends a comment signed with the commenter's current name.
func (s *RecipeService) AddComment(ctx context.Context, recipeID, userID primitive.ObjectID, text string) (*models.Comment, error) {
	req := models.CommentRequest{Text: text}
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}
	u, err := getUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	c := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		UserName:  u.Name,
		Text:      req.Text,
		CreatedAt: s.now(),
	}
	if err := s.store.AddComment(ctx, recipeID, c); err != nil {
		return nil, mapRecipeErr(err)
	}
	return &c, nil
}

// AddRating records a user's one and only rating for a recipe and refreshes
// the stored average.
func (s *RecipeService) AddRating(ctx context.Context, recipeID, userID primitive.ObjectID, rating *float64) (*models.RatingResult, error) {
	value, err := checkRating(rating)
	if err != nil {
		return nil, err
	}

	var res *models.RatingResult
	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.store.AddRating(ctx, recipeID, models.Rating{
			UserID:    userID,
			Rating:    value,
			CreatedAt: s.now(),
		})
		if errors.Is(err, storage.ErrConditionFailed) {
			cur, gerr := getRecipe(ctx, s.store, recipeID)
			if gerr != nil {
				return gerr
			}
			prev, _ := cur.RatingBy(userID)
			return &AlreadyRatedError{PreviousRating: prev}
		}
		if err != nil {
			return mapRecipeErr(err)
		}

		avg := averageRating(r.Ratings)
		if err := s.store.SetAverageRating(ctx, recipeID, avg); err != nil {
			return mapRecipeErr(err)
		}
		res = &models.RatingResult{AverageRating: avg, RatingCount: len(r.Ratings)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func checkRating(rating *float64) (int, error) {
	if rating == nil {
		return 0, invalidField("rating", "Rating is required")
	}
	v := *rating
	if math.IsNaN(v) || v != math.Trunc(v) || v < models.MinRating || v > models.MaxRating {
		return 0, invalidField("rating", fmt.Sprintf("Rating must be a whole number between %d and %d", models.MinRating, models.MaxRating))
	}
	return int(v), nil
}

// averageRating is the mean rounded to one decimal place.
func averageRating(ratings []models.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*10) / 10
}

func getRecipe(ctx context.Context, recipes storage.RecipeStore, id primitive.ObjectID) (*models.Recipe, error) {
	r, err := recipes.GetRecipe(ctx, id)
	if err != nil {
		return nil, mapRecipeErr(err)
	}
	return r, nil
}

func mapRecipeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return ErrRecipeNotFound
	}
	return fmt.Errorf("recipe store: %w", err)
}
