package services

import (
	"context"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
)

// Mailer sends the account lifecycle and support emails.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, name, code string) error
	SendWelcomeEmail(ctx context.Context, to, name string) error
	SendPasswordResetEmail(ctx context.Context, to, resetURL string) error
	SendResetSuccessEmail(ctx context.Context, to string) error
	SendSupportEmail(ctx context.Context, ticket, userName, userEmail, message string) error
}

// LogMailer logs instead of sending. Used when no SendGrid key is configured.
type LogMailer struct{}

func (LogMailer) SendVerificationEmail(ctx context.Context, to, name, code string) error {
	logging.Ctx(ctx).Info().Str("component", "mailer").Str("to", to).Str("code", code).Msg("verification email (not sent)")
	return nil
}

func (LogMailer) SendWelcomeEmail(ctx context.Context, to, name string) error {
	logging.Ctx(ctx).Info().Str("component", "mailer").Str("to", to).Msg("welcome email (not sent)")
	return nil
}

func (LogMailer) SendPasswordResetEmail(ctx context.Context, to, resetURL string) error {
	logging.Ctx(ctx).Info().Str("component", "mailer").Str("to", to).Str("url", resetURL).Msg("password reset email (not sent)")
	return nil
}

func (LogMailer) SendResetSuccessEmail(ctx context.Context, to string) error {
	logging.Ctx(ctx).Info().Str("component", "mailer").Str("to", to).Msg("reset success email (not sent)")
	return nil
}

func (LogMailer) SendSupportEmail(ctx context.Context, ticket, userName, userEmail, message string) error {
	logging.Ctx(ctx).Info().Str("component", "mailer").Str("ticket", ticket).Str("from", userEmail).Msg("support email (not sent)")
	return nil
}
