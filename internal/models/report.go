package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/validation"
)

// Report snapshots reporter and reported identities at submission time.
type Report struct {
	ID               primitive.ObjectID  `json:"id" bson:"_id"`
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
	CreatedAt        time.Time           `json:"createdAt" bson:"created_at"`
}

type SubmitReportRequest struct {
	ReportedUserID string `json:"reportedUserId" validate:"required,objectid"`
	RecipeID       string `json:"recipeId" validate:"omitempty,objectid"`
	Title          string `json:"title" validate:"required,max=200"`
	Reason         string `json:"reason" validate:"required,max=2000"`
}

const (
	ResolvePass = "pass"
	ResolveWarn = "warn"
)

type ResolveReportRequest struct {
	Action string `json:"action" validate:"required,oneof=pass warn"`
	// Reason overrides the report's reason on the warning entry.
	Reason string `json:"reason" validate:"max=2000"`
}

type ResolveReportResult struct {
	Action  string         `json:"action"`
	Warning *WarningResult `json:"warning,omitempty"`
}

func (r *SubmitReportRequest) Validate() map[string]string {
	r.Title = strings.TrimSpace(r.Title)
	r.Reason = strings.TrimSpace(r.Reason)
	r.ReportedUserID = strings.TrimSpace(r.ReportedUserID)
	r.RecipeID = strings.TrimSpace(r.RecipeID)
	return validation.Struct(r)
}

func (r *ResolveReportRequest) Validate() map[string]string {
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	r.Reason = strings.TrimSpace(r.Reason)
	return validation.Struct(r)
}
