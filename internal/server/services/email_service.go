package services

import (
	"fmt"
	"html"

	"github.com/resendlabs/resend-go"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	skipSend  bool
}

func NewEmailService(apiKey, fromEmail string, skipSend bool) (*EmailService, error) {
	if apiKey == "" && !skipSend {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable not set")
	}

	if fromEmail == "" {
		fromEmail = "noreply@plantalytics.us"
	}

	return &EmailService{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		skipSend:  skipSend,
	}, nil
}

func (s *EmailService) send(to, subject, body string) error {
	// Skip email sending in test mode
	if s.skipSend {
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}

	_, err := s.client.Emails.Send(params)
	return err
}

func (s *EmailService) SendPasswordReset(email, username, link string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #333;">Plantalytics Password Reset</h2>
			<p>Hello %s,</p>
			<p>A password reset was requested for your account. Follow the link below to choose a new password:</p>
			<p style="margin: 20px 0;"><a href="%s">Reset my password</a></p>
			<p style="color: #666;">This link expires shortly and can only be used for your account.</p>
			<p style="color: #666;">If you didn't request a reset, please ignore this email.</p>
			<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
			<p style="color: #999; font-size: 12px;">Plantalytics - Vineyard Monitoring</p>
		</div>
	`, html.EscapeString(username), html.EscapeString(link))

	return s.send(email, "Reset your Plantalytics password", body)
}

func (s *EmailService) SendEmailChanged(oldEmail, newEmail, username string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #333;">Plantalytics Email Changed</h2>
			<p>Hello %s,</p>
			<p>The email address on your account was changed to <strong>%s</strong>.</p>
			<p style="color: #666;">If you didn't make this change, contact your vineyard administrator.</p>
			<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
			<p style="color: #999; font-size: 12px;">Plantalytics - Vineyard Monitoring</p>
		</div>
	`, html.EscapeString(username), html.EscapeString(newEmail))

	return s.send(oldEmail, "Your Plantalytics email address changed", body)
}
