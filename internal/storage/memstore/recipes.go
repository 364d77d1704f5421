package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

func (s *Store) CreateRecipe(ctx context.Context, r *models.Recipe) error {
	return s.write(ctx, func() error {
		if _, ok := s.recipes[r.ID]; ok {
			return storage.ErrDuplicate
		}
		s.recipes[r.ID] = clone(r)
		return nil
	})
}

func (s *Store) GetRecipe(_ context.Context, id ID) (*models.Recipe, error) {
	var out *models.Recipe
	s.read(func() { out = clone(s.recipes[id]) })
	if out == nil {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

func (s *Store) ListRecipes(_ context.Context, q models.RecipeQuery) ([]*models.Recipe, error) {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]*models.Recipe, 0)
	s.read(func() {
		for _, r := range s.recipes {
			if q.Category != "" && !strings.EqualFold(r.Category, q.Category) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(r.Title), search) {
				continue
			}
			out = append(out, clone(r))
		}
	})
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) ListRecipesByUser(_ context.Context, userID ID) ([]*models.Recipe, error) {
	out := make([]*models.Recipe, 0)
	s.read(func() {
		for _, r := range s.recipes {
			if r.UserID == userID {
				out = append(out, clone(r))
			}
		}
	})
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(rs []*models.Recipe) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].CreatedAt.After(rs[j].CreatedAt) })
}

func (s *Store) UpdateRecipe(ctx context.Context, r *models.Recipe) error {
	return s.write(ctx, func() error {
		cur, ok := s.recipes[r.ID]
		if !ok {
			return storage.ErrNotFound
		}
		next := clone(r)
		next.Comments = cur.Comments
		next.Ratings = cur.Ratings
		next.AverageRating = cur.AverageRating
		next.UserID = cur.UserID
		next.CreatedAt = cur.CreatedAt
		s.recipes[r.ID] = next
		return nil
	})
}

func (s *Store) DeleteRecipe(ctx context.Context, id ID) error {
	return s.write(ctx, func() error {
		if _, ok := s.recipes[id]; !ok {
			return storage.ErrNotFound
		}
		delete(s.recipes, id)
		return nil
	})
}

func (s *Store) DeleteRecipesByUser(ctx context.Context, userID ID) (int64, error) {
	var n int64
	err := s.write(ctx, func() error {
		for id, r := range s.recipes {
			if r.UserID == userID {
				delete(s.recipes, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *Store) AddComment(ctx context.Context, recipeID ID, c models.Comment) error {
	return s.write(ctx, func() error {
		r, ok := s.recipes[recipeID]
		if !ok {
			return storage.ErrNotFound
		}
		r.Comments = append(r.Comments, c)
		return nil
	})
}

func (s *Store) AddRating(ctx context.Context, recipeID ID, rt models.Rating) (*models.Recipe, error) {
	var out *models.Recipe
	err := s.write(ctx, func() error {
		r, ok := s.recipes[recipeID]
		if !ok {
			return storage.ErrNotFound
		}
		if _, rated := r.RatingBy(rt.UserID); rated {
			return storage.ErrConditionFailed
		}
		r.Ratings = append(r.Ratings, rt)
		out = clone(r)
		return nil
	})
	return out, err
}

func (s *Store) SetAverageRating(ctx context.Context, recipeID ID, avg float64) error {
	return s.write(ctx, func() error {
		r, ok := s.recipes[recipeID]
		if !ok {
			return storage.ErrNotFound
		}
		r.AverageRating = avg
		return nil
	})
}
