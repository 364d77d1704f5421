package mongostore

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

func (s *Store) CreateRecipe(ctx context.Context, r *models.Recipe) error {
	return insertOne(ctx, s.col(ColRecipes), r)
}

func (s *Store) GetRecipe(ctx context.Context, id ID) (*models.Recipe, error) {
	return findOne[models.Recipe](ctx, s.col(ColRecipes), bson.M{"_id": id})
}

func (s *Store) ListRecipes(ctx context.Context, q models.RecipeQuery) ([]*models.Recipe, error) {
	filter := bson.M{}
	if c := strings.TrimSpace(q.Category); c != "" {
		filter["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(c) + "$", Options: "i"}
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[models.Recipe](ctx, s.col(ColRecipes), filter, opts)
}

func (s *Store) ListRecipesByUser(ctx context.Context, userID ID) ([]*models.Recipe, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[models.Recipe](ctx, s.col(ColRecipes), bson.M{"user_id": userID}, opts)
}

func (s *Store) UpdateRecipe(ctx context.Context, r *models.Recipe) error {
	return updateOne(ctx, s.col(ColRecipes), bson.M{"_id": r.ID}, bson.M{"$set": bson.M{
		"title":        r.Title,
		"ingredients":  r.Ingredients,
		"instructions": r.Instructions,
		"prep_time":    r.PrepTime,
		"category":     r.Category,
		"image":        r.Image,
		"video":        r.Video,
		"updated_at":   now(),
	}})
}

func (s *Store) DeleteRecipe(ctx context.Context, id ID) error {
	return deleteOne(ctx, s.col(ColRecipes), bson.M{"_id": id})
}

func (s *Store) DeleteRecipesByUser(ctx context.Context, userID ID) (int64, error) {
	return deleteMany(ctx, s.col(ColRecipes), bson.M{"user_id": userID})
}

func (s *Store) AddComment(ctx context.Context, recipeID ID, c models.Comment) error {
	return updateOne(ctx, s.col(ColRecipes), bson.M{"_id": recipeID}, bson.M{
		"$push": bson.M{"comments": c},
	})
}

// AddRating pushes the rating only if the filter still finds no rating from
// the same user, so two concurrent submissions cannot both land.
func (s *Store) AddRating(ctx context.Context, recipeID ID, rt models.Rating) (*models.Recipe, error) {
	filter := bson.M{
		"_id":             recipeID,
		"ratings.user_id": bson.M{"$ne": rt.UserID},
	}
	update := bson.M{
		"$push": bson.M{"ratings": rt},
		"$set":  bson.M{"updated_at": now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.Recipe
	err := s.col(ColRecipes).FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, wrapError(err)
	}
	if _, gerr := s.GetRecipe(ctx, recipeID); gerr != nil {
		return nil, gerr
	}
	return nil, storage.ErrConditionFailed
}

func (s *Store) SetAverageRating(ctx context.Context, recipeID ID, avg float64) error {
	return updateOne(ctx, s.col(ColRecipes), bson.M{"_id": recipeID}, bson.M{
		"$set": bson.M{"average_rating": avg},
	})
}
