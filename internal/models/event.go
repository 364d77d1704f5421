package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/validation"
)

type Event struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id"`
	OrganizerID primitive.ObjectID   `json:"organizerId" bson:"organizer_id"`
	Name        string               `json:"name" bson:"name"`
	Description string               `json:"description" bson:"description"`
	Location    string               `json:"location" bson:"location"`
	StartTime   time.Time            `json:"startTime" bson:"start_time"`
	EndTime     time.Time            `json:"endTime" bson:"end_time"`
	Attendees   []primitive.ObjectID `json:"attendees" bson:"attendees"`
	Invited     []primitive.ObjectID `json:"invited" bson:"invited"`
	Rejected    []primitive.ObjectID `json:"rejected" bson:"rejected"`
	JoinToken   string               `json:"joinToken" bson:"join_token"`
	CreatedAt   time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updated_at"`
}

type EventRequest struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=4000"`
	Location    string    `json:"location" validate:"required,max=300"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required"`
}

type InviteRequest struct {
	UserID string `json:"userId" validate:"required,objectid"`
}

func (r *EventRequest) Validate() map[string]string {
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
	errs := validation.Struct(r)
	if !r.StartTime.IsZero() && !r.EndTime.IsZero() && !r.EndTime.After(r.StartTime) {
		errs["endTime"] = "End time must be after start time"
	}
	return errs
}

func (r *InviteRequest) Validate() map[string]string {
	return validation.Struct(r)
}

// ContainsID reports whether id is in ids.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RemoveID returns ids without id, preserving order.
func RemoveID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
