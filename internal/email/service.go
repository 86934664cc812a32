package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/scholarport/scholarship-api/internal/logging"
)

// Service delivers transactional email over SMTP. Callers treat delivery
// failure as non-fatal; it is reported, never swallowed.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
	logger       *logging.Logger
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, frontendURL string, logger *logging.Logger) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		frontendURL:  frontendURL,
		logger:       logger,
	}
}

// SendVerificationEmail sends an email verification link to the user
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/verify-email/%s", s.frontendURL, token)

	body, err := renderActionEmail(actionEmailData{
		Heading: "Verify your email address",
		Intro:   "Thanks for signing up for the scholarship portal. Click the button below to verify your email address and activate your account.",
		Action:  "Verify Email Address",
		Link:    link,
		Expiry:  "This link will expire in 24 hours.",
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.send(toEmail, "Verify your email address", body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendPasswordResetEmail sends a password reset link to the user
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)

	body, err := renderActionEmail(actionEmailData{
		Heading: "Reset your password",
		Intro:   "We received a request to reset the password for your account. Click the button below to choose a new password. If you did not request this, you can safely ignore this email.",
		Action:  "Reset Password",
		Link:    link,
		Expiry:  "This link will expire in 1 hour.",
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.send(toEmail, "Reset your password", body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) send(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

type actionEmailData struct {
	Heading string
	Intro   string
	Action  string
	Link    string
	Expiry  string
}

var actionEmailTmpl = template.Must(template.New("action").Parse(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>{{.Heading}}</h2>
    <p>{{.Intro}}</p>
    <p><a href="{{.Link}}" style="display: inline-block; background-color: #2563EB; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">{{.Action}}</a></p>
    <p>Or copy and paste this link into your browser:</p>
    <p style="word-break: break-all; color: #2563EB;">{{.Link}}</p>
    <p style="margin-top: 30px; font-size: 12px; color: #666;">{{.Expiry}}</p>
</body>
</html>
`))

func renderActionEmail(data actionEmailData) (string, error) {
	var buf bytes.Buffer
	if err := actionEmailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
