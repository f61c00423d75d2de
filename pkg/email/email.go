// Package email sends the gateway's transactional mail through Resend.
package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
)

// Sender delivers account notifications. Services treat a nil Sender as
// "mail disabled".
type Sender interface {
	SendWelcome(ctx context.Context, toEmail string, fullName *string) error
	SendRoleChanged(ctx context.Context, toEmail string, role models.Role) error
}

// emailClient is the slice of resend.EmailsSvc the sender needs.
type emailClient interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type resendSender struct {
	emails emailClient
	from   string // "Name <addr>"
	appURL string
}

// NewResendSender builds a Sender. from is a full RFC 5322 address.
func NewResendSender(apiKey, from, appURL string) Sender {
	return &resendSender{
		emails: resend.NewClient(apiKey).Emails,
		from:   from,
		appURL: strings.TrimRight(appURL, "/"),
	}
}

func (s *resendSender) SendWelcome(ctx context.Context, toEmail string, fullName *string) error {
	greeting := "Welcome to VITALYX"
	if fullName != nil && strings.TrimSpace(*fullName) != "" {
		greeting = "Welcome to VITALYX, " + strings.TrimSpace(*fullName)
	}

	body := layout(greeting,
		"Your account is ready. Log your first health entry to start building your dashboard.",
		s.appURL+"/dashboard", "Open dashboard")

	return s.send(ctx, toEmail, "Welcome to VITALYX", body)
}

func (s *resendSender) SendRoleChanged(ctx context.Context, toEmail string, role models.Role) error {
	text := "Your account no longer has administrator access."
	if role == models.RoleAdmin {
		text = "Your account now has administrator access. The admin pages appear in your menu after your next refresh."
	}

	body := layout("Your VITALYX access changed", text, s.appURL+"/dashboard", "Open dashboard")
	return s.send(ctx, toEmail, "Your VITALYX access changed", body)
}

func (s *resendSender) send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}

	if _, err := s.emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send %q email: %w", subject, err)
	}
	return nil
}

func layout(heading, text, link, cta string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background-color:#f4f7fb;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="padding:40px 0;">
    <tr><td align="center">
      <table width="480" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:40px;">
        <tr><td>
          <h1 style="color:#0f766e;font-size:22px;margin:0 0 16px 0;">%s</h1>
          <p style="color:#334155;font-size:15px;line-height:1.6;margin:0 0 24px 0;">%s</p>
          <a href="%s" style="display:inline-block;background-color:#0f766e;color:#ffffff;text-decoration:none;padding:12px 28px;border-radius:6px;font-weight:600;">%s</a>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`, html.EscapeString(heading), html.EscapeString(text), html.EscapeString(link), html.EscapeString(cta))
}
