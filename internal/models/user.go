package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/validation"
)

type Role string

const (
	RoleCook           Role = "cook"
	RoleGuest          Role = "guest"
	RoleEventOrganizer Role = "event-organizer"
	RoleModerator      Role = "moderator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCook, RoleGuest, RoleEventOrganizer, RoleModerator:
		return true
	}
	return false
}

// IsCGE reports whether r is one of the three non-moderator roles.
func (r Role) IsCGE() bool {
	return r == RoleCook || r == RoleGuest || r == RoleEventOrganizer
}

type User struct {
	ID                         primitive.ObjectID `json:"id" bson:"_id"`
	Email                      string             `json:"email" bson:"email"`
	PasswordHash               string             `json:"-" bson:"password_hash"`
	Name                       string             `json:"name" bson:"name"`
	Role                       Role               `json:"role" bson:"role"`
	IsVerified                 bool               `json:"isVerified" bson:"is_verified"`
	VerificationToken          string             `json:"-" bson:"verification_token,omitempty"`
	VerificationTokenExpiresAt *time.Time         `json:"-" bson:"verification_token_expires_at,omitempty"`
	ResetPasswordToken         string             `json:"-" bson:"reset_password_token,omitempty"`
	ResetPasswordExpiresAt     *time.Time         `json:"-" bson:"reset_password_expires_at,omitempty"`
	RoleInfoCreated            bool               `json:"roleInfoCreated" bson:"role_info_created"`
	Inbox                      []InboxMessage     `json:"inbox" bson:"inbox"`
	LastLogin                  *time.Time         `json:"lastLogin,omitempty" bson:"last_login,omitempty"`
	LoginCount                 int                `json:"loginCount" bson:"login_count"`
	CreatedAt                  time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt                  time.Time          `json:"updatedAt" bson:"updated_at"`
}

type InboxMessage struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	From      string             `json:"from" bson:"from"`
	Read      bool               `json:"read" bson:"read"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// NewInboxMessage builds an unread message stamped with the current time.
func NewInboxMessage(from, title, message string) InboxMessage {
	return InboxMessage{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Message:   message,
		From:      from,
		CreatedAt: time.Now().UTC(),
	}
}

type SignupRequest struct {
	Email         string `json:"email" validate:"required,email,max=254"`
	Password      string `json:"password" validate:"required,min=6,max=72"`
	Name          string `json:"name" validate:"required,max=120"`
	Role          Role   `json:"role" validate:"required,oneof=cook guest event-organizer moderator"`
	ModeratorCode string `json:"moderatorCode,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user"`
}

func (r *SignupRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.Role = Role(strings.ToLower(strings.TrimSpace(string(r.Role))))
}

func (r *SignupRequest) Validate() map[string]string {
	r.Normalize()
	return validation.Struct(r)
}

func (r *LoginRequest) Validate() map[string]string {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validation.Struct(r)
}

func (r *VerifyEmailRequest) Validate() map[string]string {
	r.Code = strings.TrimSpace(r.Code)
	return validation.Struct(r)
}

func (r *ForgotPasswordRequest) Validate() map[string]string {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validation.Struct(r)
}

func (r *ResetPasswordRequest) Validate() map[string]string {
	return validation.Struct(r)
}

func (r *DeleteAccountRequest) Validate() map[string]string {
	return validation.Struct(r)
}
