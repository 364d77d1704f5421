package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/validation"
)

// Role profiles are keyed by the owning user's id.

type CookProfile struct {
	UserID          primitive.ObjectID   `json:"userId" bson:"_id"`
	Specialty       string               `json:"specialty" bson:"specialty"`
	ExperienceYears int                  `json:"experienceYears" bson:"experience_years"`
	Favourites      []primitive.ObjectID `json:"favourites" bson:"favourites"`
	CreatedAt       time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time            `json:"updatedAt" bson:"updated_at"`
}

type GuestProfile struct {
	UserID      primitive.ObjectID   `json:"userId" bson:"_id"`
	Preferences []string             `json:"preferences" bson:"preferences"`
	Favourites  []primitive.ObjectID `json:"favourites" bson:"favourites"`
	CreatedAt   time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updated_at"`
}

type OrganizerProfile struct {
	UserID       primitive.ObjectID   `json:"userId" bson:"_id"`
	Organization string               `json:"organization" bson:"organization"`
	Phone        string               `json:"phone" bson:"phone"`
	Favourites   []primitive.ObjectID `json:"favourites" bson:"favourites"`
	CreatedAt    time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time            `json:"updatedAt" bson:"updated_at"`
}

// RoleInfoRequest carries the one-time role form. Only the fields for the
// caller's role are read.
type RoleInfoRequest struct {
	Specialty       string   `json:"specialty" validate:"max=120"`
	ExperienceYears int      `json:"experienceYears" validate:"min=0,max=100"`
	Preferences     []string `json:"preferences" validate:"max=50"`
	Organization    string   `json:"organization" validate:"max=200"`
	Phone           string   `json:"phone" validate:"max=40"`
}

// UpdateProfileRequest uses pointers so omitted fields stay unchanged.
type UpdateProfileRequest struct {
	Name            *string   `json:"name" validate:"omitempty,min=1,max=120"`
	Specialty       *string   `json:"specialty" validate:"omitempty,max=120"`
	ExperienceYears *int      `json:"experienceYears" validate:"omitempty,min=0,max=100"`
	Preferences     *[]string `json:"preferences"`
	Organization    *string   `json:"organization" validate:"omitempty,max=200"`
	Phone           *string   `json:"phone" validate:"omitempty,max=40"`
}

// RoleInfo is the GetRoleInfo response: the user plus whichever profile exists.
type RoleInfo struct {
	User      *User             `json:"user"`
	Cook      *CookProfile      `json:"cook,omitempty"`
	Guest     *GuestProfile     `json:"guest,omitempty"`
	Organizer *OrganizerProfile `json:"eventOrganizer,omitempty"`
	Moderator *ModeratorRecord  `json:"moderator,omitempty"`
}

func (r *RoleInfoRequest) Validate() map[string]string {
	r.Specialty = strings.TrimSpace(r.Specialty)
	r.Organization = strings.TrimSpace(r.Organization)
	r.Phone = strings.TrimSpace(r.Phone)
	return validation.Struct(r)
}

func (r *UpdateProfileRequest) Validate() map[string]string {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	errs := validation.Struct(r)
	if r.Name != nil && *r.Name == "" {
		errs["name"] = "Name cannot be empty"
	}
	return errs
}
