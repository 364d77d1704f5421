package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/validation"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Recipe struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	UserID        primitive.ObjectID `json:"userId" bson:"user_id"`
	Title         string             `json:"title" bson:"title"`
	Ingredients   []string           `json:"ingredients" bson:"ingredients"`
	Instructions  []string           `json:"instructions" bson:"instructions"`
	PrepTime      int                `json:"prepTime" bson:"prep_time"`
	Category      string             `json:"category" bson:"category"`
	Image         string             `json:"image" bson:"image"`
	Video         string             `json:"video,omitempty" bson:"video,omitempty"`
	Comments      []Comment          `json:"comments" bson:"comments"`
	Ratings       []Rating           `json:"ratings" bson:"ratings"`
	AverageRating float64            `json:"averageRating" bson:"average_rating"`
	CreatedAt     time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updated_at"`
}

type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	UserID    primitive.ObjectID `json:"userId" bson:"user_id"`
	UserName  string             `json:"userName" bson:"user_name"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

type Rating struct {
	UserID    primitive.ObjectID `json:"userId" bson:"user_id"`
	Rating    int                `json:"rating" bson:"rating"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// RatingBy returns the rating userID left on the recipe, if any.
func (r *Recipe) RatingBy(userID primitive.ObjectID) (int, bool) {
	for _, rt := range r.Ratings {
		if rt.UserID == userID {
			return rt.Rating, true
		}
	}
	return 0, false
}

type RecipeRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Ingredients  []string `json:"ingredients" validate:"min=1,dive,required"`
	Instructions []string `json:"instructions" validate:"min=1,dive,required"`
	PrepTime     int      `json:"prepTime" validate:"gt=0"`
	Category     string   `json:"category" validate:"required,max=60"`
	Image        string   `json:"image" validate:"max=500"`
	Video        string   `json:"video" validate:"omitempty,url"`
}

type RatingRequest struct {
	// Rating is decoded as a float so non-integers are rejected rather than truncated.
	Rating *float64 `json:"rating"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type ToggleFavoriteRequest struct {
	RecipeID string `json:"recipeId"`
}

type ToggleFavoriteResult struct {
	Favourites []primitive.ObjectID `json:"favourites"`
	Added      bool                 `json:"added"`
	Message    string               `json:"message"`
}

type RatingResult struct {
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
}

type RecipeQuery struct {
	Category string
	Search   string
}

func (r *RecipeRequest) Validate() map[string]string {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.TrimSpace(r.Category)
	r.Video = strings.TrimSpace(r.Video)
	r.Ingredients = trimAll(r.Ingredients)
	r.Instructions = trimAll(r.Instructions)
	return validation.Struct(r)
}

func (r *CommentRequest) Validate() map[string]string {
	r.Text = strings.TrimSpace(r.Text)
	return validation.Struct(r)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
