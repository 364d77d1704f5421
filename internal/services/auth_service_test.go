package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/sessions"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage/memstore"
)

func newAuthFixture(t *testing.T) (*AuthService, *memstore.Store, *recordingMailer) {
	t.Helper()
	st := memstore.New()
	mailer := &recordingMailer{}
	tokens := NewTokenIssuer("test-secret", time.Hour, sessions.NewMemoryRevoker())
	svc := NewAuthService(st, tokens, mailer, AuthConfig{
		ClientURL:           "http://client.test/",
		ModeratorSignupCode: "mod-code",
		BcryptCost:          bcrypt.MinCost,
	})
	return svc, st, mailer
}

func signupReq(email string, role models.Role) models.SignupRequest {
	return models.SignupRequest{Email: email, Password: testPassword, Name: "Alice", Role: role}
}

func TestSignupAndVerify(t *testing.T) {
	svc, st, mailer := newAuthFixture(t)
	ctx := context.Background()

	sess, err := svc.Signup(ctx, signupReq(" Alice@Example.com ", models.RoleCook))
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "alice@example.com", sess.User.Email)
	assert.False(t, sess.User.IsVerified)

	mail, ok := mailer.last("verification")
	require.True(t, ok)
	assert.Len(t, mail.Arg, 6)

	_, err = svc.Signup(ctx, signupReq("alice@example.com", models.RoleGuest))
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.VerifyEmail(ctx, "000000x")
	assert.ErrorIs(t, err, ErrInvalidCode)

	u, err := svc.VerifyEmail(ctx, mail.Arg)
	require.NoError(t, err)
	assert.True(t, u.IsVerified)

	stored, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.VerificationToken)
	_, ok = mailer.last("welcome")
	assert.True(t, ok)

	_, err = svc.VerifyEmail(ctx, mail.Arg)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Signup(context.Background(), models.SignupRequest{Email: "bad", Password: "123", Role: "chef"})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "email")
	assert.Contains(t, fe, "password")
	assert.Contains(t, fe, "name")
	assert.Contains(t, fe, "role")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSignupModeratorNeedsCode(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	req := signupReq("mod@example.com", models.RoleModerator)
	_, err := svc.Signup(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidModeratorCode)

	req.ModeratorCode = "mod-code"
	sess, err := svc.Signup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, sess.User.Role)
}

func TestVerifyEmailExpired(t *testing.T) {
	svc, _, mailer := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupReq("late@example.com", models.RoleGuest))
	require.NoError(t, err)
	mail, _ := mailer.last("verification")

	svc.now = func() time.Time { return time.Now().UTC().Add(25 * time.Hour) }
	_, err = svc.VerifyEmail(ctx, mail.Arg)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestLogin(t *testing.T) {
	svc, st, _ := newAuthFixture(t)
	ctx := context.Background()
	u := seedUser(t, st, "bob", models.RoleGuest)

	_, err := svc.Login(ctx, models.LoginRequest{Email: u.Email, Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid credentials", err.Error())

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := svc.Login(ctx, models.LoginRequest{Email: strings.ToUpper(u.Email), Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, 1, sess.User.LoginCount)
	assert.NotNil(t, sess.User.LastLogin)

	claims, err := svc.Tokens().Parse(ctx, sess.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.Equal(t, models.RoleGuest, claims.Role)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, st, _ := newAuthFixture(t)
	ctx := context.Background()
	u := seedUser(t, st, "carol", models.RoleCook)

	sess, err := svc.Login(ctx, models.LoginRequest{Email: u.Email, Password: testPassword})
	require.NoError(t, err)
	claims, err := svc.Tokens().Parse(ctx, sess.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	_, err = svc.Tokens().Parse(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, st, mailer := newAuthFixture(t)
	ctx := context.Background()
	u := seedUser(t, st, "dan", models.RoleGuest)

	assert.ErrorIs(t, svc.ForgotPassword(ctx, "ghost@example.com"), ErrNotFound)

	require.NoError(t, svc.ForgotPassword(ctx, u.Email))
	mail, ok := mailer.last("reset")
	require.True(t, ok)
	require.True(t, strings.HasPrefix(mail.Arg, "http://client.test/reset-password/"))
	token := strings.TrimPrefix(mail.Arg, "http://client.test/reset-password/")

	assert.ErrorIs(t, svc.ResetPassword(ctx, "nope", "newpass1"), ErrInvalidResetToken)
	require.NoError(t, svc.ResetPassword(ctx, token, "newpass1"))
	_, ok = mailer.last("reset_success")
	assert.True(t, ok)

	_, err := svc.Login(ctx, models.LoginRequest{Email: u.Email, Password: "newpass1"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "another1"), ErrInvalidResetToken)
}

func TestCheckAuth(t *testing.T) {
	svc, st, _ := newAuthFixture(t)
	u := seedUser(t, st, "erin", models.RoleGuest)

	got, err := svc.CheckAuth(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	require.NoError(t, st.DeleteUser(context.Background(), u.ID))
	_, err = svc.CheckAuth(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
