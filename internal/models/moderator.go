package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/validation"
)

// ModeratorRecord holds one moderator's append-only history. Its id is the
// moderator's user id.
type ModeratorRecord struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id"`
	Name           string               `json:"name" bson:"name"`
	DeletedRecipes []DeletedRecipeEntry `json:"deletedRecipes" bson:"deleted_recipes"`
	DeletedUsers   []DeletedUserEntry   `json:"deletedUsers" bson:"deleted_users"`
	DeletedEvents  []DeletedEventEntry  `json:"deletedEvents" bson:"deleted_events"`
	Warnings       []WarningEntry       `json:"warnings" bson:"warnings"`
	PassedReports  []PassedReportEntry  `json:"passedReports" bson:"passed_reports"`
	CreatedAt      time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updatedAt" bson:"updated_at"`
}

// Moderator actor fields shared by every history entry.
type Actor struct {
	ModeratorID   primitive.ObjectID `json:"moderatorId" bson:"moderator_id"`
	ModeratorName string             `json:"moderatorName" bson:"moderator_name"`
}

type DeletedRecipeEntry struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	Actor       `bson:",inline"`
	RecipeID    primitive.ObjectID `json:"recipeId" bson:"recipe_id"`
	RecipeTitle string             `json:"recipeTitle" bson:"recipe_title"`
	OwnerID     primitive.ObjectID `json:"ownerId" bson:"owner_id"`
	OwnerName   string             `json:"ownerName" bson:"owner_name"`
	Reason      string             `json:"reason" bson:"reason"`
	DeletedAt   time.Time          `json:"deletedAt" bson:"deleted_at"`
}

type DeletedUserEntry struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Actor     `bson:",inline"`
	UserID    primitive.ObjectID `json:"userId" bson:"user_id"`
	UserName  string             `json:"userName" bson:"user_name"`
	UserEmail string             `json:"userEmail" bson:"user_email"`
	UserRole  Role               `json:"userRole" bson:"user_role"`
	Reason    string             `json:"reason" bson:"reason"`
	DeletedAt time.Time          `json:"deletedAt" bson:"deleted_at"`
}

type DeletedEventEntry struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	Actor         `bson:",inline"`
	EventID       primitive.ObjectID `json:"eventId" bson:"event_id"`
	EventName     string             `json:"eventName" bson:"event_name"`
	OrganizerID   primitive.ObjectID `json:"organizerId" bson:"organizer_id"`
	OrganizerName string             `json:"organizerName" bson:"organizer_name"`
	Reason        string             `json:"reason" bson:"reason"`
	DeletedAt     time.Time          `json:"deletedAt" bson:"deleted_at"`
}

type WarningEntry struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Actor     `bson:",inline"`
	UserID    primitive.ObjectID  `json:"userId" bson:"user_id"`
	UserName  string              `json:"userName" bson:"user_name"`
	UserRole  Role                `json:"userRole" bson:"user_role"`
	Reason    string              `json:"reason" bson:"reason"`
	ReportID  *primitive.ObjectID `json:"reportId,omitempty" bson:"report_id,omitempty"`
	CreatedAt time.Time           `json:"createdAt" bson:"created_at"`
}

type PassedReportEntry struct {
	ID               primitive.ObjectID `json:"id" bson:"_id"`
	Actor            `bson:",inline"`
	ReportID         primitive.ObjectID  `json:"reportId" bson:"report_id"`
	ReporterID       primitive.ObjectID  `json:"reporterId" bson:"reporter_id"`
	ReporterName     string              `json:"reporterName" bson:"reporter_name"`
	ReporterRole     Role                `json:"reporterRole" bson:"reporter_role"`
	ReportedUserID   primitive.ObjectID  `json:"reportedUserId" bson:"reported_user_id"`
	ReportedUserName string              `json:"reportedUserName" bson:"reported_user_name"`
	ReportedUserRole Role                `json:"reportedUserRole" bson:"reported_user_role"`
	RecipeID         *primitive.ObjectID `json:"recipeId,omitempty" bson:"recipe_id,omitempty"`
	RecipeName       string              `json:"recipeName,omitempty" bson:"recipe_name,omitempty"`
	Title            string              `json:"title" bson:"title"`
	Reason           string              `json:"reason" bson:"reason"`
	ReportedAt       time.Time           `json:"reportedAt" bson:"reported_at"`
	PassedAt         time.Time           `json:"passedAt" bson:"passed_at"`
}

// PassedReportFrom copies the report's snapshot fields into a history entry.
func PassedReportFrom(actor Actor, r *Report, at time.Time) PassedReportEntry {
	return PassedReportEntry{
		ID:               primitive.NewObjectID(),
		Actor:            actor,
		ReportID:         r.ID,
		ReporterID:       r.ReporterID,
		ReporterName:     r.ReporterName,
		ReporterRole:     r.ReporterRole,
		ReportedUserID:   r.ReportedUserID,
		ReportedUserName: r.ReportedUserName,
		ReportedUserRole: r.ReportedUserRole,
		RecipeID:         r.RecipeID,
		RecipeName:       r.RecipeName,
		Title:            r.Title,
		Reason:           r.Reason,
		ReportedAt:       r.CreatedAt,
		PassedAt:         at,
	}
}

type WarningResult struct {
	UserID           primitive.ObjectID `json:"userId"`
	WarningCount     int                `json:"warningCount"`
	Threshold        int                `json:"threshold"`
	ThresholdReached bool               `json:"thresholdReached"`
	UserDeleted      bool               `json:"userDeleted"`
}

// UserSummary is a user as listed to moderators.
type UserSummary struct {
	ID           primitive.ObjectID `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Role         Role               `json:"role"`
	IsVerified   bool               `json:"isVerified"`
	WarningCount int                `json:"warningCount"`
	CreatedAt    time.Time          `json:"createdAt"`
}

type PassedReportRequest struct {
	ReportID string `json:"reportId" validate:"required,objectid"`
}

type WarningRequest struct {
	UserID   string `json:"userId" validate:"required,objectid"`
	Reason   string `json:"reason" validate:"required,max=2000"`
	ReportID string `json:"reportId" validate:"omitempty,objectid"`
}

type DeleteUserRequest struct {
	Reason   string `json:"reason" validate:"required,max=2000"`
	ReportID string `json:"reportId" validate:"omitempty,objectid"`
}

type DeleteContentRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type DeletedUserHistoryRequest struct {
	UserID    string `json:"userId" validate:"required,objectid"`
	UserName  string `json:"userName" validate:"required,max=120"`
	UserEmail string `json:"userEmail" validate:"omitempty,email"`
	UserRole  Role   `json:"userRole" validate:"required,oneof=cook guest event-organizer"`
	Reason    string `json:"reason" validate:"required,max=2000"`
}

type DeletedRecipeHistoryRequest struct {
	RecipeID    string `json:"recipeId" validate:"required,objectid"`
	RecipeTitle string `json:"recipeTitle" validate:"required,max=200"`
	OwnerID     string `json:"ownerId" validate:"required,objectid"`
	OwnerName   string `json:"ownerName" validate:"max=120"`
	Reason      string `json:"reason" validate:"required,max=2000"`
}

type DeletedEventHistoryRequest struct {
	EventID       string `json:"eventId" validate:"required,objectid"`
	EventName     string `json:"eventName" validate:"required,max=200"`
	OrganizerID   string `json:"organizerId" validate:"required,objectid"`
	OrganizerName string `json:"organizerName" validate:"max=120"`
	Reason        string `json:"reason" validate:"required,max=2000"`
}

func (r *PassedReportRequest) Validate() map[string]string {
	r.ReportID = strings.TrimSpace(r.ReportID)
	return validation.Struct(r)
}

func (r *WarningRequest) Validate() map[string]string {
	r.Reason = strings.TrimSpace(r.Reason)
	return validation.Struct(r)
}

func (r *DeleteUserRequest) Validate() map[string]string {
	r.Reason = strings.TrimSpace(r.Reason)
	return validation.Struct(r)
}

func (r *DeleteContentRequest) Validate() map[string]string {
	r.Reason = strings.TrimSpace(r.Reason)
	return validation.Struct(r)
}

func (r *DeletedUserHistoryRequest) Validate() map[string]string {
	r.Reason = strings.TrimSpace(r.Reason)
	r.UserName = strings.TrimSpace(r.UserName)
	return validation.Struct(r)
}

func (r *DeletedRecipeHistoryRequest) Validate() map[string]string {
	r.Reason = strings.TrimSpace(r.Reason)
	r.RecipeTitle = strings.TrimSpace(r.RecipeTitle)
	return validation.Struct(r)
}

func (r *DeletedEventHistoryRequest) Validate() map[string]string {
	r.Reason = strings.TrimSpace(r.Reason)
	r.EventName = strings.TrimSpace(r.EventName)
	return validation.Struct(r)
}
