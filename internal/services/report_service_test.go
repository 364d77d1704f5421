package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

func TestSubmitReport(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	other := seedUser(t, f.st, "other", models.RoleCook)
	r := seedRecipe(t, f.st, cook, "Suspicious stew")
	theirs := seedRecipe(t, f.st, other, "Fine stew")

	rep, err := f.rep.SubmitReport(f.ctx, guest.ID, models.SubmitReportRequest{
		ReportedUserID: cook.ID.Hex(), RecipeID: r.ID.Hex(), Title: "Stolen", Reason: "copied from a book",
	})
	require.NoError(t, err)
	assert.Equal(t, "guest", rep.ReporterName)
	assert.Equal(t, models.RoleCook, rep.ReportedUserRole)
	assert.Equal(t, "Suspicious stew", rep.RecipeName)

	_, err = f.rep.SubmitReport(f.ctx, guest.ID, models.SubmitReportRequest{ReportedUserID: cook.ID.Hex()})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "title")
	assert.Contains(t, fe, "reason")

	_, err = f.rep.SubmitReport(f.ctx, guest.ID, models.SubmitReportRequest{
		ReportedUserID: guest.ID.Hex(), Title: "t", Reason: "r",
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "reportedUserId", ve.Field)

	_, err = f.rep.SubmitReport(f.ctx, guest.ID, models.SubmitReportRequest{
		ReportedUserID: f.moderator.ID.Hex(), Title: "t", Reason: "r",
	})
	require.ErrorAs(t, err, &ve)

	_, err = f.rep.SubmitReport(f.ctx, guest.ID, models.SubmitReportRequest{
		ReportedUserID: cook.ID.Hex(), RecipeID: theirs.ID.Hex(), Title: "t", Reason: "r",
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "recipeId", ve.Field)

	_, err = f.rep.SubmitReport(f.ctx, f.moderator.ID, models.SubmitReportRequest{
		ReportedUserID: cook.ID.Hex(), Title: "t", Reason: "r",
	})
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := f.rep.ListReports(f.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDeleteReport(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	rep := seedReport(t, f.st, guest, cook, "r")

	require.NoError(t, f.rep.DeleteReport(f.ctx, f.moderator.ID, rep.ID))
	assert.ErrorIs(t, f.rep.DeleteReport(f.ctx, f.moderator.ID, rep.ID), ErrReportNotFound)

	hist, err := f.mod.History(f.ctx, f.moderator.ID)
	require.NoError(t, err)
	require.Len(t, hist.PassedReports, 1)
	assert.Equal(t, rep.ID, hist.PassedReports[0].ReportID)
	assert.Equal(t, "cook", hist.PassedReports[0].ReportedUserName)
}

func TestResolvePassLeavesHistory(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	rep := seedReport(t, f.st, guest, cook, "harmless")

	res, err := f.rep.ResolveReport(f.ctx, f.moderator.ID, rep.ID, models.ResolveReportRequest{Action: "pass"})
	require.NoError(t, err)
	assert.Nil(t, res.Warning)

	_, err = f.st.GetReport(f.ctx, rep.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	hist, err := f.mod.History(f.ctx, f.moderator.ID)
	require.NoError(t, err)
	require.Len(t, hist.PassedReports, 1)
	p := hist.PassedReports[0]
	assert.Equal(t, rep.ID, p.ReportID)
	assert.Equal(t, "guest", p.ReporterName)
	assert.Equal(t, "cook", p.ReportedUserName)
	assert.Equal(t, "harmless", p.Reason)
	assert.Empty(t, hist.Warnings)
}

func TestResolveWarnLeavesHistory(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	rep := seedReport(t, f.st, guest, cook, "insulting comments")

	res, err := f.rep.ResolveReport(f.ctx, f.moderator.ID, rep.ID, models.ResolveReportRequest{Action: "WARN"})
	require.NoError(t, err)
	require.NotNil(t, res.Warning)
	assert.Equal(t, 1, res.Warning.WarningCount)

	_, err = f.st.GetReport(f.ctx, rep.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ws, err := f.mod.Warnings(f.ctx, cook.ID)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "insulting comments", ws[0].Reason)
	require.NotNil(t, ws[0].ReportID)
	assert.Equal(t, rep.ID, *ws[0].ReportID)
}

func TestResolveValidation(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})

	_, err := f.rep.ResolveReport(f.ctx, f.moderator.ID, primitive.NewObjectID(), models.ResolveReportRequest{Action: "ban"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.rep.ResolveReport(f.ctx, f.moderator.ID, primitive.NewObjectID(), models.ResolveReportRequest{Action: "pass"})
	assert.ErrorIs(t, err, ErrReportNotFound)
}

// failingHistoryStore fails every history append after the report has been
// deleted within the same transaction.
type failingHistoryStore struct {
	storage.Store
}

var errInjected = errors.New("injected history failure")

func (failingHistoryStore) AppendPassedReport(context.Context, models.PassedReportEntry) error {
	return errInjected
}

func (failingHistoryStore) AppendWarning(context.Context, models.WarningEntry) error {
	return errInjected
}

func TestResolveFailureKeepsReport(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	rep := seedReport(t, f.st, guest, cook, "r")

	broken := failingHistoryStore{Store: f.st}
	mod := NewModerationService(broken, nil, ModerationConfig{})
	reports := NewReportService(broken, mod)

	for _, action := range []string{"pass", "warn"} {
		_, err := reports.ResolveReport(f.ctx, f.moderator.ID, rep.ID, models.ResolveReportRequest{Action: action})
		assert.ErrorIs(t, err, errInjected, action)

		got, err := f.st.GetReport(f.ctx, rep.ID)
		require.NoError(t, err, action)
		assert.Equal(t, rep.Title, got.Title)
	}

	err := mod.AddPassedReportHistory(f.ctx, f.moderator.ID, models.PassedReportRequest{ReportID: rep.ID.Hex()})
	assert.ErrorIs(t, err, errInjected)
	_, err = f.st.GetReport(f.ctx, rep.ID)
	require.NoError(t, err)
}

func TestAddPassedReportHistory(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	rep := seedReport(t, f.st, guest, cook, "r")

	require.NoError(t, f.mod.AddPassedReportHistory(f.ctx, f.moderator.ID, models.PassedReportRequest{ReportID: rep.ID.Hex()}))
	err := f.mod.AddPassedReportHistory(f.ctx, f.moderator.ID, models.PassedReportRequest{ReportID: rep.ID.Hex()})
	assert.ErrorIs(t, err, ErrReportNotFound)

	hist, err := f.mod.History(f.ctx, f.moderator.ID)
	require.NoError(t, err)
	assert.Len(t, hist.PassedReports, 1)
}

func TestAddWarningConsumesReport(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	rep := seedReport(t, f.st, guest, cook, "r")

	_, err := f.mod.AddWarning(f.ctx, f.moderator.ID, models.WarningRequest{
		UserID: cook.ID.Hex(), Reason: "be nice", ReportID: rep.ID.Hex(),
	})
	require.NoError(t, err)
	_, err = f.st.GetReport(f.ctx, rep.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddWarningRejectsReportAboutSomeoneElse(t *testing.T) {
	f := newModerationFixture(t, ModerationConfig{})
	guest := seedUser(t, f.st, "guest", models.RoleGuest)
	cook := seedUser(t, f.st, "cook", models.RoleCook)
	other := seedUser(t, f.st, "other", models.RoleCook)
	rep := seedReport(t, f.st, guest, other, "spam")

	_, err := f.mod.AddWarning(f.ctx, f.moderator.ID, models.WarningRequest{
		UserID: cook.ID.Hex(), Reason: "be nice", ReportID: rep.ID.Hex(),
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "reportId", ve.Field)

	_, err = f.st.GetReport(f.ctx, rep.ID)
	require.NoError(t, err)
	for _, u := range []*models.User{cook, other} {
		ws, err := f.mod.Warnings(f.ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, ws, u.Name)
	}
}
