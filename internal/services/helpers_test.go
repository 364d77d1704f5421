package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage/memstore"
)

const testPassword = "secret1"

type sentMail struct {
	Kind string
	To   string
	Arg  string
}

// recordingMailer keeps every email instead of sending it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) add(kind, to, arg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{Kind: kind, To: to, Arg: arg})
	return nil
}

func (m *recordingMailer) last(kind string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, to, _, code string) error {
	return m.add("verification", to, code)
}
func (m *recordingMailer) SendWelcomeEmail(_ context.Context, to, name string) error {
	return m.add("welcome", to, name)
}
func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, to, url string) error {
	return m.add("reset", to, url)
}
func (m *recordingMailer) SendResetSuccessEmail(_ context.Context, to string) error {
	return m.add("reset_success", to, "")
}
func (m *recordingMailer) SendSupportEmail(_ context.Context, ticket, _, email, _ string) error {
	return m.add("support", email, ticket)
}

// seedUser stores a verified user with testPassword and, for CGE roles, an
// empty role profile.
func seedUser(t *testing.T, st *memstore.Store, name string, role models.Role) *models.User {
	t.Helper()
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := &models.User{
		ID:              primitive.NewObjectID(),
		Email:           name + "@example.com",
		PasswordHash:    string(hash),
		Name:            name,
		Role:            role,
		IsVerified:      true,
		RoleInfoCreated: true,
		Inbox:           []models.InboxMessage{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, st.CreateUser(ctx, u))

	empty := []primitive.ObjectID{}
	switch role {
	case models.RoleCook:
		require.NoError(t, st.Cooks().Create(ctx, &models.CookProfile{UserID: u.ID, Favourites: empty}))
	case models.RoleGuest:
		require.NoError(t, st.Guests().Create(ctx, &models.GuestProfile{UserID: u.ID, Favourites: empty}))
	case models.RoleEventOrganizer:
		require.NoError(t, st.Organizers().Create(ctx, &models.OrganizerProfile{UserID: u.ID, Favourites: empty}))
	}
	return u
}

func seedRecipe(t *testing.T, st *memstore.Store, owner *models.User, title string) *models.Recipe {
	t.Helper()
	now := time.Now().UTC()
	r := &models.Recipe{
		ID:           primitive.NewObjectID(),
		UserID:       owner.ID,
		Title:        title,
		Ingredients:  []string{"flour"},
		Instructions: []string{"bake"},
		PrepTime:     10,
		Category:     "Dessert",
		Comments:     []models.Comment{},
		Ratings:      []models.Rating{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.CreateRecipe(context.Background(), r))
	return r
}

func seedReport(t *testing.T, st *memstore.Store, reporter, reported *models.User, reason string) *models.Report {
	t.Helper()
	rep := &models.Report{
		ID:               primitive.NewObjectID(),
		ReporterID:       reporter.ID,
		ReporterName:     reporter.Name,
		ReporterRole:     reporter.Role,
		ReportedUserID:   reported.ID,
		ReportedUserName: reported.Name,
		ReportedUserRole: reported.Role,
		Title:            "Spam",
		Reason:           reason,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, st.CreateReport(context.Background(), rep))
	return rep
}

func float(v float64) *float64 { return &v }
