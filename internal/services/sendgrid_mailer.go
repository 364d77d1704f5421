package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/metrics"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

type SendGridMailer struct {
	APIKey       string
	FromEmail    string
	SupportEmail string
	HTTPClient   *http.Client
	Endpoint     string

	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewSendGridMailer(apiKey, fromEmail, supportEmail string) *SendGridMailer {
	m := &SendGridMailer{
		APIKey:       strings.TrimSpace(apiKey),
		FromEmail:    strings.TrimSpace(fromEmail),
		SupportEmail: strings.TrimSpace(supportEmail),
		Endpoint:     sendGridEndpoint,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}
	m.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "sendgrid",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().Str("component", "mailer").Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return m
}

type sendGridEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To         []sendGridEmailAddress `json:"to"`
	Subject    string                 `json:"subject"`
	CustomArgs map[string]string      `json:"custom_args,omitempty"`
}

type sendGridMailSendRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmailAddress      `json:"from"`
	ReplyTo          *sendGridEmailAddress     `json:"reply_to,omitempty"`
	Content          []sendGridContent         `json:"content"`
}

func (m *SendGridMailer) plain(to, subject, body string) sendGridMailSendRequest {
	return sendGridMailSendRequest{
		Personalizations: []sendGridPersonalization{{
			To:      []sendGridEmailAddress{{Email: to}},
			Subject: subject,
		}},
		From:    sendGridEmailAddress{Email: m.FromEmail, Name: "E-Recipe Hub"},
		Content: []sendGridContent{{Type: "text/plain", Value: body}},
	}
}

func (m *SendGridMailer) SendVerificationEmail(ctx context.Context, to, name, code string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour verification code is %s. It expires in 24 hours.\n", name, code)
	return m.send(ctx, "verification", m.plain(to, "Verify your email", body))
}

func (m *SendGridMailer) SendWelcomeEmail(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Welcome to E-Recipe Hub, %s!\n", name)
	return m.send(ctx, "welcome", m.plain(to, "Welcome to E-Recipe Hub", body))
}

func (m *SendGridMailer) SendPasswordResetEmail(ctx context.Context, to, resetURL string) error {
	body := fmt.Sprintf("Reset your password within one hour:\n%s\n", resetURL)
	return m.send(ctx, "password_reset", m.plain(to, "Reset your password", body))
}

func (m *SendGridMailer) SendResetSuccessEmail(ctx context.Context, to string) error {
	return m.send(ctx, "reset_success", m.plain(to, "Password reset successful", "Your password has been changed.\n"))
}

func (m *SendGridMailer) SendSupportEmail(ctx context.Context, ticket, userName, userEmail, message string) error {
	if m.SupportEmail == "" {
		return errors.New("missing support email address")
	}
	body := strings.TrimSpace(message)
	if body == "" {
		body = "(empty message)"
	}
	plain := fmt.Sprintf("Support ticket: %s\nFrom: %s <%s>\n\nMessage:\n%s\n",
		ticket, strings.TrimSpace(userName), strings.TrimSpace(userEmail), body)

	req := m.plain(m.SupportEmail, fmt.Sprintf("Support Request: #%s", ticket), plain)
	req.Personalizations[0].CustomArgs = map[string]string{"ticket": ticket}
	req.From.Name = "E-Recipe Hub Contact Form"
	req.ReplyTo = &sendGridEmailAddress{
		Email: strings.TrimSpace(userEmail),
		Name:  strings.TrimSpace(userName),
	}
	return m.send(ctx, "support", req)
}

func (m *SendGridMailer) send(ctx context.Context, kind string, reqBody sendGridMailSendRequest) error {
	if m.APIKey == "" {
		return errors.New("missing SENDGRID_API_KEY")
	}
	if m.FromEmail == "" {
		return errors.New("missing MAIL_FROM_EMAIL")
	}
	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.post(ctx, reqBody)
	})
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.MailSent.WithLabelValues(kind, outcome).Inc()
	return err
}

func (m *SendGridMailer) post(ctx context.Context, reqBody sendGridMailSendRequest) error {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid returns 202 Accepted on success.
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid mail send http %d", resp.StatusCode)
	}
	return nil
}
