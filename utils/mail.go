package utils

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer sends transactional email through SendGrid.
type Mailer struct {
	client   *sendgrid.Client
	from     *mail.Email
	loginURL string
}

func NewMailer(apiKey, fromAddress, loginURL string) *Mailer {
	return &Mailer{
		client:   sendgrid.NewSendClient(apiKey),
		from:     mail.NewEmail("Rango", fromAddress),
		loginURL: loginURL,
	}
}

func WelcomeMessage(from *mail.Email, email, username, loginURL string) *mail.SGMailV3 {
	to := mail.NewEmail(username, email)
	subject := "Welcome to Rango"
	plainTextContent := fmt.Sprintf("Hi %s, your Rango account is ready. Log in at %s", username, loginURL)
	htmlContent := fmt.Sprintf("<p>Hi %s,</p><p>your Rango account is ready. <a href=\"%s\">Log in</a>.</p>", username, loginURL)
	return mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)
}

func (m *Mailer) SendWelcome(ctx context.Context, email, username string) error {
	message := WelcomeMessage(m.from, email, username, m.loginURL)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("send welcome email: sendgrid status %d: %s", response.StatusCode, response.Body)
	}

	zap.L().Info("welcome email sent", zap.String("username", username))
	return nil
}
