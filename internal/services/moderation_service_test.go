package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage/memstore"
)

type moderationFixture struct {
	st  *memstore.Store
	mod *ModerationService
	rep *ReportService
	ctx context.Context

	moderator *models.User
}

func newModerationFixture(t *testing.T, cfg ModerationConfig) *moderationFixture {
	t.Helper()
	st := memstore.New()
	mod := NewModerationService(st, nil, cfg)
	return &moderationFixture{
		st:        st,
		mod:       mod,
		rep:       NewReportService(st, mod),
		ctx:       context.Background(),
		moderator: seedUser(t, st, "mod", models.RoleModerator),
	}
}

func TestWarningsAccumulateWithoutAutoBlock(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	cook := seedUser(t, f.st, "cook", models.RoleCook)

	titles := []string{"First Warning", "Second Warning", "Third Warning", "Warning"}
	for i, title := range titles {
		res, err := f.mod.AddWarning(f.ctx, f.moderator.ID, models.WarningRequest{
			UserID: cook.ID.Hex(),
			Reason: fmt.Sprintf("reason %d", i+1),
		})
		require.NoError(t, err)
		assert.Equal(t, i+1, res.WarningCount)
		assert.Equal(t, i+1 >= 3, res.ThresholdReached)
		assert.False(t, res.UserDeleted)

		u, err := f.st.GetUser(f.ctx, cook.ID)
		require.NoError(t, err)
		assert.Equal(t, title, u.Inbox[len(u.Inbox)-1].Title)
	}

	ws, err := f.mod.Warnings(f.ctx, cook.ID)
	require.NoError(t, err)
	assert.Len(t, ws, 4)
	assert.Equal(t, "reason 1", ws[0].Reason)
	assert.Equal(t, "cook", ws[0].UserName)

	hist, err := f.mod.History(f.ctx, f.moderator.ID)
	require.NoError(t, err)
	assert.Len(t, hist.Warnings, 4)
}

func TestWarningCountSpansModerators(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	other := seedUser(t, f.st, "mod2", models.RoleModerator)
	guest := seedUser(t, f.st, "guest", models.RoleGuest)

	_, err := f.mod.AddWarning(f.ctx, f.moderator.ID, models.WarningRequest{UserID: guest.ID.Hex(), Reason: "a"})
	require.NoError(t, err)
	res, err := f.mod.AddWarning(f.ctx, other.ID, models.WarningRequest{UserID: guest.ID.Hex(), Reason: "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.WarningCount)

	users, err := f.mod.ListUsers(f.ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 2, users[0].WarningCount)
}

func TestAutoDeleteOnThreshold(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{WarningThreshold: 2, AutoDeleteOnThreshold: true})
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	seedRecipe(t, f.st, cook, "Bad recipe")

	res, err := f.mod.AddWarning(f.ctx, f.moderator.ID, models.WarningRequest{UserID: cook.ID.Hex(), Reason: "one"})
	require.NoError(t, err)
	assert.False(t, res.UserDeleted)

	res, err = f.mod.AddWarning(f.ctx, f.moderator.ID, models.WarningRequest{UserID: cook.ID.Hex(), Reason: "two"})
	require.NoError(t, err)
	assert.True(t, res.ThresholdReached)
	assert.True(t, res.UserDeleted)

	_, err = f.st.GetUser(f.ctx, cook.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	recipes, err := f.st.ListRecipesByUser(f.ctx, cook.ID)
	require.NoError(t, err)
	assert.Empty(t, recipes)

	hist, err := f.mod.History(f.ctx, f.moderator.ID)
	require.NoError(t, err)
	require.Len(t, hist.DeletedUsers, 1)
	assert.Equal(t, "Reached 2 warnings", hist.DeletedUsers[0].Reason)
}

func TestWarningRequiresModeratorAndTarget(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	other := seedUser(t, f.st, "mod2", models.RoleModerator)

	_, err := f.mod.AddWarning(f.ctx, guest.ID, models.WarningRequest{UserID: guest.ID.Hex(), Reason: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.mod.AddWarning(f.ctx, f.moderator.ID, models.WarningRequest{UserID: other.ID.Hex(), Reason: "x"})
	assert.ErrorIs(t, err, ErrModeratorProtected)

	_, err = f.mod.AddWarning(f.ctx, f.moderator.ID, models.WarningRequest{UserID: primitive.NewObjectID().Hex(), Reason: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.mod.AddWarning(f.ctx, f.moderator.ID, models.WarningRequest{UserID: "zzz"})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "userId")
	assert.Contains(t, fe, "reason")
}

func TestDeleteUserCascade(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	org := seedUser(t, f.st, "org", models.RoleEventOrganizer)
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	for i := 0; i < 3; i++ {
		seedRecipe(t, f.st, cook, fmt.Sprintf("R%d", i))
	}
	now := time.Now().UTC()
	require.NoError(t, f.st.CreateEvent(f.ctx, &models.Event{
		ID: primitive.NewObjectID(), OrganizerID: org.ID, Name: "E", JoinToken: "tok",
		StartTime: now, EndTime: now.Add(time.Hour),
	}))

	_, err := f.mod.DeleteUser(f.ctx, f.moderator.ID, cook.ID, models.DeleteUserRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	res, err := f.mod.DeleteUser(f.ctx, f.moderator.ID, cook.ID, models.DeleteUserRequest{Reason: "spam"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.RecipesDeleted)
	recipes, err := f.st.ListRecipesByUser(f.ctx, cook.ID)
	require.NoError(t, err)
	assert.Empty(t, recipes)
	_, err = f.st.Cooks().Get(f.ctx, cook.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	res, err = f.mod.DeleteUser(f.ctx, f.moderator.ID, org.ID, models.DeleteUserRequest{Reason: "fake events"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.EventsDeleted)
	events, err := f.st.ListEventsByOrganizer(f.ctx, org.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = f.mod.DeleteUser(f.ctx, f.moderator.ID, guest.ID, models.DeleteUserRequest{Reason: "rude"})
	require.NoError(t, err)
	_, err = f.st.Guests().Get(f.ctx, guest.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	hist, err := f.mod.History(f.ctx, f.moderator.ID)
	require.NoError(t, err)
	require.Len(t, hist.DeletedUsers, 3)
	assert.Equal(t, "cook", hist.DeletedUsers[0].UserName)
	assert.Equal(t, models.RoleCook, hist.DeletedUsers[0].UserRole)
	assert.Equal(t, "spam", hist.DeletedUsers[0].Reason)

	_, err = f.mod.DeleteUser(f.ctx, f.moderator.ID, cook.ID, models.DeleteUserRequest{Reason: "again"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUserProtectsModerators(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	other := seedUser(t, f.st, "mod2", models.RoleModerator)

	_, err := f.mod.DeleteUser(f.ctx, f.moderator.ID, other.ID, models.DeleteUserRequest{Reason: "x"})
	assert.ErrorIs(t, err, ErrModeratorProtected)
	_, err = f.st.GetUser(f.ctx, other.ID)
	require.NoError(t, err)
}

func TestDeleteUserConsumesReport(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	rep := seedReport(t, f.st, guest, cook, "abuse")

	_, err := f.mod.DeleteUser(f.ctx, f.moderator.ID, cook.ID, models.DeleteUserRequest{
		Reason: "abuse", ReportID: rep.ID.Hex(),
	})
	require.NoError(t, err)
	_, err = f.st.GetReport(f.ctx, rep.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteUserRejectsReportAboutSomeoneElse(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	other := seedUser(t, f.st, "other", models.RoleCook)
	rep := seedReport(t, f.st, guest, other, "abuse")

	_, err := f.mod.DeleteUser(f.ctx, f.moderator.ID, cook.ID, models.DeleteUserRequest{
		Reason: "abuse", ReportID: rep.ID.Hex(),
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "reportId", ve.Field)

	_, err = f.st.GetReport(f.ctx, rep.ID)
	require.NoError(t, err)
	_, err = f.st.GetUser(f.ctx, cook.ID)
	require.NoError(t, err)
	hist, err := f.mod.History(f.ctx, f.moderator.ID)
	require.NoError(t, err)
	assert.Empty(t, hist.DeletedUsers)
}

func TestModeratorDeletesContent(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	org := seedUser(t, f.st, "org", models.RoleEventOrganizer)
	r := seedRecipe(t, f.st, cook, "Offensive")
	now := time.Now().UTC()
	ev := &models.Event{ID: primitive.NewObjectID(), OrganizerID: org.ID, Name: "Scam", JoinToken: "t1", StartTime: now, EndTime: now.Add(time.Hour)}
	require.NoError(t, f.st.CreateEvent(f.ctx, ev))

	require.NoError(t, f.mod.DeleteRecipe(f.ctx, f.moderator.ID, r.ID, models.DeleteContentRequest{Reason: "offensive"}))
	require.NoError(t, f.mod.DeleteEvent(f.ctx, f.moderator.ID, ev.ID, models.DeleteContentRequest{Reason: "scam"}))
	assert.ErrorIs(t, f.mod.DeleteRecipe(f.ctx, f.moderator.ID, r.ID, models.DeleteContentRequest{Reason: "x"}), ErrRecipeNotFound)

	hist, err := f.mod.History(f.ctx, f.moderator.ID)
	require.NoError(t, err)
	require.Len(t, hist.DeletedRecipes, 1)
	assert.Equal(t, "Offensive", hist.DeletedRecipes[0].RecipeTitle)
	assert.Equal(t, "cook", hist.DeletedRecipes[0].OwnerName)
	require.Len(t, hist.DeletedEvents, 1)
	assert.Equal(t, "org", hist.DeletedEvents[0].OrganizerName)

	u, err := f.st.GetUser(f.ctx, cook.ID)
	require.NoError(t, err)
	require.Len(t, u.Inbox, 1)
	assert.Equal(t, "Recipe Removed", u.Inbox[0].Title)
}

func TestHistoryAppends(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	id := primitive.NewObjectID().Hex()

	require.NoError(t, f.mod.AddDeletedUserHistory(f.ctx, f.moderator.ID, models.DeletedUserHistoryRequest{
		UserID: id, UserName: "gone", UserRole: models.RoleGuest, Reason: "spam",
	}))
	require.NoError(t, f.mod.AddDeletedRecipeHistory(f.ctx, f.moderator.ID, models.DeletedRecipeHistoryRequest{
		RecipeID: id, RecipeTitle: "Soup", OwnerID: id, Reason: "copied",
	}))
	require.NoError(t, f.mod.AddDeletedEventHistory(f.ctx, f.moderator.ID, models.DeletedEventHistoryRequest{
		EventID: id, EventName: "Fair", OrganizerID: id, Reason: "cancelled",
	}))

	err := f.mod.AddDeletedUserHistory(f.ctx, f.moderator.ID, models.DeletedUserHistoryRequest{
		UserID: id, UserName: "x", UserRole: models.RoleModerator, Reason: "r",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	hist, err := f.mod.History(f.ctx, f.moderator.ID)
	require.NoError(t, err)
	assert.Len(t, hist.DeletedUsers, 1)
	assert.Len(t, hist.DeletedRecipes, 1)
	assert.Len(t, hist.DeletedEvents, 1)
	assert.Equal(t, "mod", hist.DeletedUsers[0].ModeratorName)
}

func TestHistoryEmptyForNewModerator(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})

	hist, err := f.mod.History(f.ctx, f.moderator.ID)
	require.NoError(t, err)
	assert.Equal(t, "mod", hist.Name)
	assert.NotNil(t, hist.Warnings)
	assert.Empty(t, hist.PassedReports)
}

func TestWarningTitle(t *testing.T) {
	assert.Equal(t, "First Warning", warningTitle(1))
	assert.Equal(t, "Third Warning", warningTitle(3))
	assert.Equal(t, "Warning", warningTitle(7))
	assert.True(t, errors.Is(ErrModeratorsOnly, ErrForbidden))
}
