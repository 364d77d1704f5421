package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

const (
	DefaultVerificationTTL = 24 * time.Hour
	DefaultResetTTL        = time.Hour
)

type AuthConfig struct {
	// ClientURL prefixes password reset links.
	ClientURL           string
	ModeratorSignupCode string
	VerificationTTL     time.Duration
	ResetTTL            time.Duration
	BcryptCost          int
}

// Session is an issued session token and the user it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type AuthService struct {
	store  storage.Store
	tokens *TokenIssuer
	mailer Mailer
	cfg    AuthConfig
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(store storage.Store, tokens *TokenIssuer, mailer Mailer, cfg AuthConfig) *AuthService {
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = DefaultVerificationTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = DefaultResetTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &AuthService{
		store:  store,
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
		log:    logging.Component("auth"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Tokens() *TokenIssuer { return s.tokens }

// Signup creates an unverified account, mails its verification code and
// opens a session.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*Session, error) {
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}
	if req.Role == models.RoleModerator && !s.moderatorCodeOK(req.ModeratorCode) {
		return nil, ErrInvalidModeratorCode
	}

	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := newVerificationCode()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expires := now.Add(s.cfg.VerificationTTL)
	u := &models.User{
		ID:                         primitive.NewObjectID(),
		Email:                      req.Email,
		PasswordHash:               string(hash),
		Name:                       req.Name,
		Role:                       req.Role,
		VerificationToken:          code,
		VerificationTokenExpiresAt: &expires,
		Inbox:                      []models.InboxMessage{},
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, u.Email, u.Name, code); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID.Hex()).Msg("verification email failed")
	}
	s.log.Info().Str("user_id", u.ID.Hex()).Str("role", string(u.Role)).Msg("user signed up")
	return s.issue(u)
}

func (s *AuthService) moderatorCodeOK(code string) bool {
	want := s.cfg.ModeratorSignupCode
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(want)) == 1
}

// VerifyEmail activates the account holding code.
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (*models.User, error) {
	req := models.VerifyEmailRequest{Code: code}
	if errs := req.Validate(); len(errs) > 0 {
		return nil, ErrInvalidCode
	}
	u, err := s.store.GetUserByVerificationToken(ctx, req.Code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("lookup verification code: %w", err)
	}
	if u.VerificationTokenExpiresAt == nil || !u.VerificationTokenExpiresAt.After(s.now()) {
		return nil, ErrInvalidCode
	}

	u.IsVerified = true
	u.VerificationToken = ""
	u.VerificationTokenExpiresAt = nil
	u.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := s.mailer.SendWelcomeEmail(ctx, u.Email, u.Name); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID.Hex()).Msg("welcome email failed")
	}
	return u, nil
}

// Login checks credentials and records the login.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*Session, error) {
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}
	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	u.LastLogin = &now
	u.LoginCount++
	u.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	return s.issue(u)
}

// Logout revokes the session's token.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// ForgotPassword issues a one-hour reset token and mails the reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	req := models.ForgotPasswordRequest{Email: email}
	if err := checkFields(req.Validate()); err != nil {
		return err
	}
	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrEmailNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup email: %w", err)
	}

	expires := s.now().Add(s.cfg.ResetTTL)
	u.ResetPasswordToken = uuid.NewString()
	u.ResetPasswordExpiresAt = &expires
	u.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := strings.TrimRight(s.cfg.ClientURL, "/") + "/reset-password/" + u.ResetPasswordToken
	if err := s.mailer.SendPasswordResetEmail(ctx, u.Email, link); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetPassword sets a new password for the holder of token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	req := models.ResetPasswordRequest{Password: password}
	if err := checkFields(req.Validate()); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	u, err := s.store.GetUserByResetToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if u.ResetPasswordExpiresAt == nil || !u.ResetPasswordExpiresAt.After(s.now()) {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.ResetPasswordToken = ""
	u.ResetPasswordExpiresAt = nil
	u.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.mailer.SendResetSuccessEmail(ctx, u.Email); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID.Hex()).Msg("reset confirmation email failed")
	}
	return nil
}

// CheckAuth returns the session's user.
func (s *AuthService) CheckAuth(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return getUser(ctx, s.store, userID)
}

func (s *AuthService) issue(u *models.User) (*Session, error) {
	tok, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, ExpiresAt: exp, User: u}, nil
}

func getUser(ctx context.Context, users storage.UserStore, id primitive.ObjectID) (*models.User, error) {
	u, err := users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
