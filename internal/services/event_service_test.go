package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage/memstore"
)

func eventReq(start time.Time) models.EventRequest {
	return models.EventRequest{
		Name:      "Bake-off",
		Location:  "Town hall",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}
}

func TestEventCreateAndOwnership(t *testing.T) {
	st := memstore.New()
	svc := NewEventService(st, "http://client.test")
	ctx := context.Background()
	org := seedUser(t, st, "org", models.RoleEventOrganizer)
	org2 := seedUser(t, st, "org2", models.RoleEventOrganizer)
	cook := seedUser(t, st, "cook", models.RoleCook)
	start := time.Now().Add(24 * time.Hour)

	_, err := svc.Create(ctx, cook.ID, cook.Role, eventReq(start))
	assert.ErrorIs(t, err, ErrForbidden)

	bad := eventReq(start)
	bad.EndTime = start.Add(-time.Hour)
	_, err = svc.Create(ctx, org.ID, org.Role, bad)
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "endTime")

	e, err := svc.Create(ctx, org.ID, org.Role, eventReq(start))
	require.NoError(t, err)
	assert.NotEmpty(t, e.JoinToken)

	upcoming, err := svc.ListUpcoming(ctx)
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)

	_, err = svc.Update(ctx, org2.ID, e.ID, eventReq(start))
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, svc.Delete(ctx, org2.ID, e.ID), ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, org.ID, e.ID))
	_, err = svc.Get(ctx, e.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventInviteAcceptReject(t *testing.T) {
	st := memstore.New()
	svc := NewEventService(st, "http://client.test/")
	ctx := context.Background()
	org := seedUser(t, st, "org", models.RoleEventOrganizer)
	cook := seedUser(t, st, "cook", models.RoleCook)
	guest := seedUser(t, st, "guest", models.RoleGuest)
	e, err := svc.Create(ctx, org.ID, org.Role, eventReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	_, err = svc.Accept(ctx, e.ID, cook.ID)
	assert.ErrorIs(t, err, ErrNotInvited)

	_, err = svc.Invite(ctx, e.ID, org.ID, cook.ID)
	require.NoError(t, err)
	_, err = svc.Invite(ctx, e.ID, org.ID, cook.ID)
	assert.ErrorIs(t, err, ErrAlreadyInvited)

	u, err := st.GetUser(ctx, cook.ID)
	require.NoError(t, err)
	require.Len(t, u.Inbox, 1)
	assert.Equal(t, "Event Invitation: Bake-off", u.Inbox[0].Title)
	assert.True(t, strings.Contains(u.Inbox[0].Message, "http://client.test/events/join/"+e.JoinToken))

	got, err := svc.Accept(ctx, e.ID, cook.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Attendees, cook.ID)
	assert.Empty(t, got.Invited)

	_, err = svc.Invite(ctx, e.ID, org.ID, guest.ID)
	require.NoError(t, err)
	got, err = svc.Reject(ctx, e.ID, guest.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Rejected, guest.ID)
	assert.NotContains(t, got.Attendees, guest.ID)
}

func TestJoinByTokenIdempotent(t *testing.T) {
	st := memstore.New()
	svc := NewEventService(st, "")
	ctx := context.Background()
	org := seedUser(t, st, "org", models.RoleEventOrganizer)
	guest := seedUser(t, st, "guest", models.RoleGuest)
	e, err := svc.Create(ctx, org.ID, org.Role, eventReq(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := svc.JoinByToken(ctx, e.JoinToken, guest.ID)
		require.NoError(t, err)
		assert.Len(t, got.Attendees, 1)
	}
	_, err = svc.JoinByToken(ctx, "unknown", guest.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
