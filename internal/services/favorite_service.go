package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

// favoritesHolder reads and writes one role's favourites list.
type favoritesHolder interface {
	GetFavorites(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	SetFavorites(ctx context.Context, userID primitive.ObjectID, favs []primitive.ObjectID) error
}

type profileFavorites[P any] struct {
	profiles storage.ProfileStore[P]
	get      func(*P) []primitive.ObjectID
}

func (h profileFavorites[P]) GetFavorites(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	p, err := h.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return h.get(p), nil
}

func (h profileFavorites[P]) SetFavorites(ctx context.Context, userID primitive.ObjectID, favs []primitive.ObjectID) error {
	return h.profiles.SetFavourites(ctx, userID, favs)
}

type FavoriteService struct {
	store   storage.Store
	holders map[models.Role]favoritesHolder
}

func NewFavoriteService(store storage.Store) *FavoriteService {
	return &FavoriteService{
		store: store,
		holders: map[models.Role]favoritesHolder{
			models.RoleCook: profileFavorites[models.CookProfile]{
				profiles: store.Cooks(),
				get:      func(p *models.CookProfile) []primitive.ObjectID { return p.Favourites },
			},
			models.RoleGuest: profileFavorites[models.GuestProfile]{
				profiles: store.Guests(),
				get:      func(p *models.GuestProfile) []primitive.ObjectID { return p.Favourites },
			},
			models.RoleEventOrganizer: profileFavorites[models.OrganizerProfile]{
				profiles: store.Organizers(),
				get:      func(p *models.OrganizerProfile) []primitive.ObjectID { return p.Favourites },
			},
		},
	}
}

func (s *FavoriteService) holder(role models.Role) (favoritesHolder, error) {
	h, ok := s.holders[role]
	if !ok {
		return nil, ErrNoFavouritesStore
	}
	return h, nil
}

// ToggleFavorite adds recipeID to the caller's favourites, or removes it if
// already present.
func (s *FavoriteService) ToggleFavorite(ctx context.Context, userID primitive.ObjectID, role models.Role, recipeID string) (*models.ToggleFavoriteResult, error) {
	rid, err := primitive.ObjectIDFromHex(recipeID)
	if err != nil {
		return nil, invalidField("recipeId", "Invalid recipe id")
	}
	h, err := s.holder(role)
	if err != nil {
		return nil, err
	}

	var res *models.ToggleFavoriteResult
	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		favs, err := h.GetFavorites(ctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrProfileNotFound
		}
		if err != nil {
			return fmt.Errorf("get favourites: %w", err)
		}

		res = &models.ToggleFavoriteResult{}
		if models.ContainsID(favs, rid) {
			res.Favourites = models.RemoveID(favs, rid)
			res.Message = "Recipe removed from favourites"
		} else {
			if _, err := getRecipe(ctx, s.store, rid); err != nil {
				return err
			}
			res.Favourites = append(append([]primitive.ObjectID{}, favs...), rid)
			res.Added = true
			res.Message = "Recipe added to favourites"
		}
		if err := h.SetFavorites(ctx, userID, res.Favourites); err != nil {
			return fmt.Errorf("set favourites: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListFavorites returns the caller's favourite recipes. Recipes deleted since
// they were favourited are skipped.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID primitive.ObjectID, role models.Role) ([]*models.Recipe, error) {
	h, err := s.holder(role)
	if err != nil {
		return nil, err
	}
	favs, err := h.GetFavorites(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get favourites: %w", err)
	}
	out := make([]*models.Recipe, 0, len(favs))
	for _, id := range favs {
		r, err := s.store.GetRecipe(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get recipe: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
