package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/metrics"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

// UserService covers the signed-in user's own account: role profile, inbox
// and self-service deletion.
type UserService struct {
	store  storage.Store
	images *ImageService
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserService(store storage.Store, images *ImageService) *UserService {
	return &UserService{
		store:  store,
		images: images,
		log:    logging.Component("users"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateRoleInfo creates the one-time role profile for a verified user.
func (s *UserService) CreateRoleInfo(ctx context.Context, userID primitive.ObjectID, req models.RoleInfoRequest) (*models.RoleInfo, error) {
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}

	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := getUser(ctx, s.store, userID)
		if err != nil {
			return err
		}
		if !u.IsVerified {
			return ErrNotVerified
		}
		if u.RoleInfoCreated {
			return ErrRoleInfoExists
		}

		now := s.now()
		switch u.Role {
		case models.RoleCook:
			err = s.store.Cooks().Create(ctx, &models.CookProfile{
				UserID: u.ID, Specialty: req.Specialty, ExperienceYears: req.ExperienceYears,
				Favourites: []primitive.ObjectID{}, CreatedAt: now, UpdatedAt: now,
			})
		case models.RoleGuest:
			prefs := req.Preferences
			if prefs == nil {
				prefs = []string{}
			}
			err = s.store.Guests().Create(ctx, &models.GuestProfile{
				UserID: u.ID, Preferences: prefs,
				Favourites: []primitive.ObjectID{}, CreatedAt: now, UpdatedAt: now,
			})
		case models.RoleEventOrganizer:
			err = s.store.Organizers().Create(ctx, &models.OrganizerProfile{
				UserID: u.ID, Organization: req.Organization, Phone: req.Phone,
				Favourites: []primitive.ObjectID{}, CreatedAt: now, UpdatedAt: now,
			})
		case models.RoleModerator:
			_, err = s.store.EnsureModerator(ctx, u.ID, u.Name)
		}
		if errors.Is(err, storage.ErrDuplicate) {
			return ErrRoleInfoExists
		}
		if err != nil {
			return fmt.Errorf("create role profile: %w", err)
		}

		u.RoleInfoCreated = true
		u.UpdatedAt = now
		return s.store.UpdateUser(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoleInfo(ctx, userID)
}

// GetRoleInfo returns the user and whichever role profile exists.
func (s *UserService) GetRoleInfo(ctx context.Context, userID primitive.ObjectID) (*models.RoleInfo, error) {
	u, err := getUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	info := &models.RoleInfo{User: u}
	switch u.Role {
	case models.RoleCook:
		info.Cook, err = s.store.Cooks().Get(ctx, userID)
	case models.RoleGuest:
		info.Guest, err = s.store.Guests().Get(ctx, userID)
	case models.RoleEventOrganizer:
		info.Organizer, err = s.store.Organizers().Get(ctx, userID)
	case models.RoleModerator:
		info.Moderator, err = s.store.GetModerator(ctx, userID)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get role profile: %w", err)
	}
	return info, nil
}

// UpdateProfile applies the non-nil fields to the user and its role profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, req models.UpdateProfileRequest) (*models.RoleInfo, error) {
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := getUser(ctx, s.store, userID)
		if err != nil {
			return err
		}
		now := s.now()
		if req.Name != nil && *req.Name != u.Name {
			u.Name = *req.Name
			u.UpdatedAt = now
			if err := s.store.UpdateUser(ctx, u); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}
		return s.updateRoleProfile(ctx, u, req, now)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoleInfo(ctx, userID)
}

func (s *UserService) updateRoleProfile(ctx context.Context, u *models.User, req models.UpdateProfileRequest, now time.Time) error {
	var err error
	switch u.Role {
	case models.RoleCook:
		if req.Specialty == nil && req.ExperienceYears == nil {
			return nil
		}
		var p *models.CookProfile
		if p, err = s.store.Cooks().Get(ctx, u.ID); err == nil {
			if req.Specialty != nil {
				p.Specialty = *req.Specialty
			}
			if req.ExperienceYears != nil {
				p.ExperienceYears = *req.ExperienceYears
			}
			p.UpdatedAt = now
			err = s.store.Cooks().Update(ctx, p)
		}
	case models.RoleGuest:
		if req.Preferences == nil {
			return nil
		}
		var p *models.GuestProfile
		if p, err = s.store.Guests().Get(ctx, u.ID); err == nil {
			p.Preferences = *req.Preferences
			p.UpdatedAt = now
			err = s.store.Guests().Update(ctx, p)
		}
	case models.RoleEventOrganizer:
		if req.Organization == nil && req.Phone == nil {
			return nil
		}
		var p *models.OrganizerProfile
		if p, err = s.store.Organizers().Get(ctx, u.ID); err == nil {
			if req.Organization != nil {
				p.Organization = *req.Organization
			}
			if req.Phone != nil {
				p.Phone = *req.Phone
			}
			p.UpdatedAt = now
			err = s.store.Organizers().Update(ctx, p)
		}
	}
	if errors.Is(err, storage.ErrNotFound) {
		return ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("update role profile: %w", err)
	}
	return nil
}

func (s *UserService) Inbox(ctx context.Context, userID primitive.ObjectID) ([]models.InboxMessage, error) {
	u, err := getUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	if u.Inbox == nil {
		return []models.InboxMessage{}, nil
	}
	return u.Inbox, nil
}

func (s *UserService) MarkMessageRead(ctx context.Context, userID, msgID primitive.ObjectID) error {
	err := s.store.MarkInboxMessageRead(ctx, userID, msgID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrMessageNotFound
	}
	return err
}

func (s *UserService) DeleteMessage(ctx context.Context, userID, msgID primitive.ObjectID) error {
	err := s.store.DeleteInboxMessage(ctx, userID, msgID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrMessageNotFound
	}
	return err
}

// DeleteOwnAccount removes the caller's account and everything it owns once
// the password is confirmed. Moderators keep their accounts so their history
// survives.
func (s *UserService) DeleteOwnAccount(ctx context.Context, userID primitive.ObjectID, password string) (*DeleteAccountResult, error) {
	req := models.DeleteAccountRequest{Password: password}
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}

	var res *DeleteAccountResult
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := getUser(ctx, s.store, userID)
		if err != nil {
			return err
		}
		if u.Role == models.RoleModerator {
			return ErrModeratorProtected
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return ErrWrongPassword
		}
		res, err = deleteAccountData(ctx, s.store, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.UsersDeleted.WithLabelValues("self").Inc()
	if s.images != nil {
		s.images.RemoveURLs(res.ImageURLs)
	}
	s.log.Info().Str("user_id", userID.Hex()).Int64("recipes", res.RecipesDeleted).
		Int64("events", res.EventsDeleted).Msg("account deleted by owner")
	return res, nil
}
