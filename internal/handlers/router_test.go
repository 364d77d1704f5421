package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/authz"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/sessions"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage/memstore"
)

const testPassword = "secret1"

type apiServer struct {
	t      *testing.T
	st     *memstore.Store
	tokens *services.TokenIssuer
	h      http.Handler
}

type stubCaptcha struct{ ok bool }

func (c stubCaptcha) VerifyV2(context.Context, string, string) (bool, string, error) {
	if c.ok {
		return true, "", nil
	}
	return false, "invalid-input-response", nil
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	st := memstore.New()
	tokens := services.NewTokenIssuer("test-secret", time.Hour, sessions.NewMemoryRevoker())
	images, err := services.NewImageService(t.TempDir())
	require.NoError(t, err)
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)

	mod := services.NewModerationService(st, images, services.ModerationConfig{WarningThreshold: 3})
	h := NewRouter(Deps{
		Store:       st,
		Tokens:      tokens,
		Authz:       enforcer,
		Auth:        services.NewAuthService(st, tokens, services.LogMailer{}, services.AuthConfig{BcryptCost: bcrypt.MinCost}),
		Users:       services.NewUserService(st, images),
		Recipes:     services.NewRecipeService(st),
		Favorites:   services.NewFavoriteService(st),
		Events:      services.NewEventService(st, "http://localhost:5173"),
		Reports:     services.NewReportService(st, mod),
		Moderation:  mod,
		Images:      images,
		Captcha:     stubCaptcha{ok: true},
		Mailer:      services.LogMailer{},
		Cookie:      CookieConfig{Name: "token"},
		MaxUploadMB: 1,
		RateLimit:   RateLimit{Disabled: true},
	})
	return &apiServer{t: t, st: st, tokens: tokens, h: h}
}

// user stores a verified account with its role profile and returns a session token.
func (s *apiServer) user(name string, role models.Role) (*models.User, string) {
	s.t.Helper()
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(s.t, err)
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
	require.NoError(s.t, s.st.CreateUser(ctx, u))

	empty := []primitive.ObjectID{}
	switch role {
	case models.RoleCook:
		require.NoError(s.t, s.st.Cooks().Create(ctx, &models.CookProfile{UserID: u.ID, Favourites: empty}))
	case models.RoleGuest:
		require.NoError(s.t, s.st.Guests().Create(ctx, &models.GuestProfile{UserID: u.ID, Favourites: empty}))
	case models.RoleEventOrganizer:
		require.NoError(s.t, s.st.Organizers().Create(ctx, &models.OrganizerProfile{UserID: u.ID, Favourites: empty}))
	}

	tok, _, err := s.tokens.Issue(u)
	require.NoError(s.t, err)
	return u, tok
}

func (s *apiServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealth(t *testing.T) {
	s := newAPIServer(t)
	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSignupLoginCookie(t *testing.T) {
	s := newAPIServer(t)

	rec := s.do(http.MethodPost, "/api/auth/signup", "", models.SignupRequest{
		Email: "Ann@Example.com", Password: testPassword, Name: "Ann", Role: models.RoleCook,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "token=")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "HttpOnly")

	rec = s.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "ann@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode(t, rec).Success)

	rec = s.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "ann@example.com", Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check-auth", nil)
	req.AddCookie(cookies[0])
	check := httptest.NewRecorder()
	s.h.ServeHTTP(check, req)
	assert.Equal(t, http.StatusOK, check.Code)
	assert.Contains(t, check.Body.String(), "ann@example.com")
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newAPIServer(t)
	_, tok := s.user("cook", models.RoleCook)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/logout", tok, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/check-auth", tok, nil).Code)
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	s := newAPIServer(t)
	for _, path := range []string{"/api/recipes", "/api/events", "/api/inbox", "/api/moderator/history"} {
		rec := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestMalformedIDIsNotFound(t *testing.T) {
	s := newAPIServer(t)
	_, tok := s.user("guest", models.RoleGuest)

	rec := s.do(http.MethodGet, "/api/recipes/not-an-id", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Recipe not found", decode(t, rec).Message)

	rec = s.do(http.MethodGet, "/api/events/"+primitive.NewObjectID().Hex(), tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipeRoleChecks(t *testing.T) {
	s := newAPIServer(t)
	_, cookTok := s.user("cook", models.RoleCook)
	_, guestTok := s.user("guest", models.RoleGuest)

	body := models.RecipeRequest{
		Title:        "Pancakes",
		Ingredients:  []string{"flour", "milk"},
		Instructions: []string{"mix", "fry"},
		PrepTime:     15,
		Category:     "Breakfast",
	}
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/recipes", guestTok, body).Code)

	rec := s.do(http.MethodPost, "/api/recipes", cookTok, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/recipes", cookTok, models.RecipeRequest{Title: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Contains(t, env.Errors, "ingredients")
	assert.Contains(t, env.Errors, "category")

	rec = s.do(http.MethodGet, "/api/recipes?category=Breakfast", guestTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Recipe
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Pancakes", list[0].Title)
}

func TestRateTwiceConflicts(t *testing.T) {
	s := newAPIServer(t)
	cook, _ := s.user("cook", models.RoleCook)
	_, guestTok := s.user("guest", models.RoleGuest)
	now := time.Now().UTC()
	r := &models.Recipe{
		ID: primitive.NewObjectID(), UserID: cook.ID, Title: "Soup",
		Ingredients: []string{"water"}, Instructions: []string{"boil"}, PrepTime: 5, Category: "Main",
		Comments: []models.Comment{}, Ratings: []models.Rating{}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.st.CreateRecipe(context.Background(), r))
	path := "/api/recipesinfo/" + r.ID.Hex() + "/rate"

	rec := s.do(http.MethodPost, path, guestTok, map[string]float64{"rating": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, path, guestTok, map[string]float64{"rating": 2})
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "already rated")
	assert.JSONEq(t, `{"previousRating":4}`, string(env.Data))

	rec = s.do(http.MethodPost, path, guestTok, map[string]float64{"rating": 2.5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	got, err := s.st.GetRecipe(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.AverageRating)
}

func TestToggleFavouriteTwice(t *testing.T) {
	s := newAPIServer(t)
	cook, _ := s.user("cook", models.RoleCook)
	_, guestTok := s.user("guest", models.RoleGuest)
	_, modTok := s.user("mod", models.RoleModerator)
	now := time.Now().UTC()
	r := &models.Recipe{
		ID: primitive.NewObjectID(), UserID: cook.ID, Title: "Stew",
		Ingredients: []string{"beef"}, Instructions: []string{"simmer"}, PrepTime: 90, Category: "Main",
		Comments: []models.Comment{}, Ratings: []models.Rating{}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.st.CreateRecipe(context.Background(), r))
	body := models.ToggleFavoriteRequest{RecipeID: r.ID.Hex()}

	rec := s.do(http.MethodPost, "/api/recipesinfo/togglefav", guestTok, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"added":true`)

	rec = s.do(http.MethodPost, "/api/recipesinfo/togglefav", guestTok, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"added":false`)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/recipesinfo/togglefav", modTok, body).Code)
}

func TestReportResolveFlow(t *testing.T) {
	s := newAPIServer(t)
	_, guestTok := s.user("guest", models.RoleGuest)
	cook, cookTok := s.user("cook", models.RoleCook)
	mod, modTok := s.user("mod", models.RoleModerator)

	rec := s.do(http.MethodPost, "/api/reports", guestTok, models.SubmitReportRequest{
		ReportedUserID: cook.ID.Hex(), Title: "Spam", Reason: "posts adverts",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rep models.Report
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &rep))

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/reports/allReports", cookTok, nil).Code)

	rec = s.do(http.MethodGet, "/api/reports/allReports", modTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var open []models.Report
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &open))
	require.Len(t, open, 1)

	rec = s.do(http.MethodPost, "/api/reports/"+rep.ID.Hex()+"/resolve", modTok, models.ResolveReportRequest{Action: "dismiss"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/reports/"+rep.ID.Hex()+"/resolve", modTok, models.ResolveReportRequest{Action: "warn"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"warningCount":1`)

	_, err := s.st.GetReport(context.Background(), rep.ID)
	assert.Error(t, err)

	history, err := s.st.GetModerator(context.Background(), mod.ID)
	require.NoError(t, err)
	require.Len(t, history.Warnings, 1)
	assert.Equal(t, cook.ID, history.Warnings[0].UserID)

	rec = s.do(http.MethodGet, "/api/moderator/warnings/"+cook.ID.Hex(), modTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "posts adverts")
}

func TestModeratorDeletesImproperUser(t *testing.T) {
	s := newAPIServer(t)
	cook, _ := s.user("cook", models.RoleCook)
	other, _ := s.user("other-mod", models.RoleModerator)
	_, modTok := s.user("mod", models.RoleModerator)

	path := "/api/moderator/" + other.ID.Hex() + "/delete-improper-user"
	rec := s.do(http.MethodDelete, path, modTok, models.DeleteUserRequest{Reason: "spam"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	path = "/api/moderator/" + cook.ID.Hex() + "/delete-improper-user"
	rec = s.do(http.MethodDelete, path, modTok, models.DeleteUserRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, path, modTok, models.DeleteUserRequest{Reason: "spam"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := s.st.GetUser(context.Background(), cook.ID)
	assert.Error(t, err)

	rec = s.do(http.MethodGet, "/api/moderator/history", modTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reason":"spam"`)
}

func TestDeletedUserSessionRejected(t *testing.T) {
	s := newAPIServer(t)
	cook, cookTok := s.user("cook", models.RoleCook)
	_, modTok := s.user("mod", models.RoleModerator)

	path := "/api/moderator/" + cook.ID.Hex() + "/delete-improper-user"
	rec := s.do(http.MethodDelete, path, modTok, models.DeleteUserRequest{Reason: "spam"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/recipes", cookTok, models.RecipeRequest{
		Title:        "Ghost pie",
		Ingredients:  []string{"flour"},
		Instructions: []string{"bake"},
		PrepTime:     30,
		Category:     "Dessert",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized - invalid token", decode(t, rec).Message)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/check-auth", cookTok, nil).Code)

	left, err := s.st.ListRecipesByUser(context.Background(), cook.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestModeratorCanRate(t *testing.T) {
	s := newAPIServer(t)
	cook, _ := s.user("cook", models.RoleCook)
	_, modTok := s.user("mod", models.RoleModerator)
	now := time.Now().UTC()
	r := &models.Recipe{
		ID: primitive.NewObjectID(), UserID: cook.ID, Title: "Curry",
		Ingredients: []string{"rice"}, Instructions: []string{"cook"}, PrepTime: 40, Category: "Main",
		Comments: []models.Comment{}, Ratings: []models.Rating{}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.st.CreateRecipe(context.Background(), r))

	rec := s.do(http.MethodPost, "/api/recipesinfo/"+r.ID.Hex()+"/rate", modTok, map[string]float64{"rating": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := s.st.GetRecipe(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.AverageRating)
}

func TestDeleteReportArchivesAsPassed(t *testing.T) {
	s := newAPIServer(t)
	cook, _ := s.user("cook", models.RoleCook)
	guest, _ := s.user("guest", models.RoleGuest)
	mod, modTok := s.user("mod", models.RoleModerator)
	rep := &models.Report{
		ID: primitive.NewObjectID(), ReporterID: guest.ID, ReportedUserID: cook.ID,
		Title: "Rude", Reason: "rude comments", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.st.CreateReport(context.Background(), rep))

	rec := s.do(http.MethodDelete, "/api/reports/"+rep.ID.Hex(), modTok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	history, err := s.st.GetModerator(context.Background(), mod.ID)
	require.NoError(t, err)
	require.Len(t, history.PassedReports, 1)
	assert.Equal(t, rep.ID, history.PassedReports[0].ReportID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/reports/"+rep.ID.Hex(), modTok, nil).Code)
}

func TestContact(t *testing.T) {
	s := newAPIServer(t)

	rec := s.do(http.MethodPost, "/api/contact", "", models.SupportRequest{Name: "Ann", Email: "not-an-email", Message: "hi"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "recaptchaToken")

	rec = s.do(http.MethodPost, "/api/contact", "", models.SupportRequest{
		Name: "Ann", Email: "ann@example.com", Message: "hi", RecaptchaToken: "tok",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ticket models.SupportTicketResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &ticket))
	assert.True(t, strings.HasPrefix(ticket.Ticket, "RH-"))
}

func TestContactCaptchaRejected(t *testing.T) {
	h := NewSupportHandler(stubCaptcha{ok: false}, services.LogMailer{})
	body := `{"name":"Ann","email":"ann@example.com","message":"hi","recaptchaToken":"bad"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSupportTicketFormat(t *testing.T) {
	at := time.Date(2026, 1, 31, 3, 25, 8, 0, time.UTC)
	ticket := supportTicket(at)
	assert.True(t, strings.HasPrefix(ticket, "RH-20260131-032508-"))
	assert.Len(t, ticket, len("RH-20260131-032508-")+8)
}
