// Package storage declares the persistence contracts used by the services.
// Drivers live in memstore (development, tests) and mongostore (production).
package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
)

type ID = primitive.ObjectID

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id ID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	// UpdateUser replaces the stored user, inbox excluded.
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id ID) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]*models.User, error)

	PushInboxMessage(ctx context.Context, userID ID, msg models.InboxMessage) error
	MarkInboxMessageRead(ctx context.Context, userID, msgID ID) error
	DeleteInboxMessage(ctx context.Context, userID, msgID ID) error
}

// ProfileStore is the per-role profile collection contract.
type ProfileStore[P any] interface {
	Create(ctx context.Context, p *P) error
	Get(ctx context.Context, userID ID) (*P, error)
	Update(ctx context.Context, p *P) error
	SetFavourites(ctx context.Context, userID ID, favs []ID) error
	Delete(ctx context.Context, userID ID) error
}

type (
	CookStore      = ProfileStore[models.CookProfile]
	GuestStore     = ProfileStore[models.GuestProfile]
	OrganizerStore = ProfileStore[models.OrganizerProfile]
)

// ModeratorStore appends history. Append methods create the moderator's
// record on first use.
type ModeratorStore interface {
	GetModerator(ctx context.Context, id ID) (*models.ModeratorRecord, error)
	EnsureModerator(ctx context.Context, id ID, name string) (*models.ModeratorRecord, error)
	AppendDeletedRecipe(ctx context.Context, e models.DeletedRecipeEntry) error
	AppendDeletedUser(ctx context.Context, e models.DeletedUserEntry) error
	AppendDeletedEvent(ctx context.Context, e models.DeletedEventEntry) error
	AppendWarning(ctx context.Context, e models.WarningEntry) error
	AppendPassedReport(ctx context.Context, e models.PassedReportEntry) error
	// WarningsForUser returns warning entries about userID across all moderators.
	WarningsForUser(ctx context.Context, userID ID) ([]models.WarningEntry, error)
	// WarningCounts returns the number of warnings per warned user.
	WarningCounts(ctx context.Context) (map[ID]int, error)
}

type RecipeStore interface {
	CreateRecipe(ctx context.Context, r *models.Recipe) error
	GetRecipe(ctx context.Context, id ID) (*models.Recipe, error)
	ListRecipes(ctx context.Context, q models.RecipeQuery) ([]*models.Recipe, error)
	ListRecipesByUser(ctx context.Context, userID ID) ([]*models.Recipe, error)
	// UpdateRecipe replaces editable fields; comments and ratings are untouched.
	UpdateRecipe(ctx context.Context, r *models.Recipe) error
	DeleteRecipe(ctx context.Context, id ID) error
	DeleteRecipesByUser(ctx context.Context, userID ID) (int64, error)
	AddComment(ctx context.Context, recipeID ID, c models.Comment) error
	// AddRating appends rt only when rt.UserID has not rated yet, returning
	// ErrConditionFailed otherwise. The updated recipe is returned.
	AddRating(ctx context.Context, recipeID ID, rt models.Rating) (*models.Recipe, error)
	SetAverageRating(ctx context.Context, recipeID ID, avg float64) error
}

type EventStore interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, id ID) (*models.Event, error)
	GetEventByJoinToken(ctx context.Context, token string) (*models.Event, error)
	ListEventsEndingAfter(ctx context.Context, t time.Time) ([]*models.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID ID) ([]*models.Event, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id ID) error
	DeleteEventsByOrganizer(ctx context.Context, organizerID ID) (int64, error)
	DeleteEventsEndedBefore(ctx context.Context, t time.Time) (int64, error)
}

type ReportStore interface {
	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id ID) (*models.Report, error)
	ListReports(ctx context.Context) ([]*models.Report, error)
	DeleteReport(ctx context.Context, id ID) error
}

// Transactor runs fn so that every write made through the context it
// receives commits or rolls back together.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store aggregates every collection contract.
type Store interface {
	UserStore
	ModeratorStore
	RecipeStore
	EventStore
	ReportStore
	Transactor

	Cooks() CookStore
	Guests() GuestStore
	Organizers() OrganizerStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
