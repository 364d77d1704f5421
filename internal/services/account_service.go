package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

// DefaultAccountTimeout bounds account deletion requests.
func DefaultAccountTimeout() time.Duration { return 20 * time.Second }

type DeleteAccountResult struct {
	UserID         primitive.ObjectID `json:"userId"`
	RecipesDeleted int64              `json:"recipesDeleted"`
	EventsDeleted  int64              `json:"eventsDeleted"`
	// ImageURLs are uploaded recipe images that belonged to the account.
	ImageURLs []string `json:"imageUrls,omitempty"`
}

// deleteAccountData removes the user's role-specific data and then the user
// record itself. Callers run it inside a transaction.
func deleteAccountData(ctx context.Context, st storage.Store, u *models.User) (*DeleteAccountResult, error) {
	res := &DeleteAccountResult{UserID: u.ID}

	switch u.Role {
	case models.RoleCook:
		recipes, err := st.ListRecipesByUser(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("list recipes: %w", err)
		}
		for _, r := range recipes {
			if r.Image != "" {
				res.ImageURLs = append(res.ImageURLs, r.Image)
			}
		}
		if res.RecipesDeleted, err = st.DeleteRecipesByUser(ctx, u.ID); err != nil {
			return nil, fmt.Errorf("delete recipes: %w", err)
		}
		if err := ignoreNotFound(st.Cooks().Delete(ctx, u.ID)); err != nil {
			return nil, fmt.Errorf("delete cook profile: %w", err)
		}
	case models.RoleEventOrganizer:
		n, err := st.DeleteEventsByOrganizer(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("delete events: %w", err)
		}
		res.EventsDeleted = n
		if err := ignoreNotFound(st.Organizers().Delete(ctx, u.ID)); err != nil {
			return nil, fmt.Errorf("delete organizer profile: %w", err)
		}
	case models.RoleGuest:
		if err := ignoreNotFound(st.Guests().Delete(ctx, u.ID)); err != nil {
			return nil, fmt.Errorf("delete guest profile: %w", err)
		}
	}

	if err := st.DeleteUser(ctx, u.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return res, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
