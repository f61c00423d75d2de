package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/resend/resend-go/v3"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
)

type recordingClient struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (c *recordingClient) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	c.sent = append(c.sent, params)
	if c.err != nil {
		return nil, c.err
	}
	return &resend.SendEmailResponse{Id: "msg-1"}, nil
}

func newTestSender(c *recordingClient) *resendSender {
	return &resendSender{emails: c, from: "VITALYX <noreply@example.com>", appURL: "https://app.example.com"}
}

func TestSendWelcomeEscapesName(t *testing.T) {
	rc := &recordingClient{}
	name := "<b>Ada</b>"
	if err := newTestSender(rc).SendWelcome(context.Background(), "ada@example.com", &name); err != nil {
		t.Fatal(err)
	}
	if len(rc.sent) != 1 {
		t.Fatalf("sent %d mails", len(rc.sent))
	}
	msg := rc.sent[0]
	if msg.To[0] != "ada@example.com" || msg.From != "VITALYX <noreply@example.com>" {
		t.Errorf("envelope = %v from %s", msg.To, msg.From)
	}
	if strings.Contains(msg.Html, "<b>Ada</b>") || !strings.Contains(msg.Html, "&lt;b&gt;Ada&lt;/b&gt;") {
		t.Error("full name not escaped")
	}
	if !strings.Contains(msg.Html, "https://app.example.com/dashboard") {
		t.Error("dashboard link missing")
	}
}

func TestSendRoleChanged(t *testing.T) {
	rc := &recordingClient{}
	if err := newTestSender(rc).SendRoleChanged(context.Background(), "ada@example.com", models.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rc.sent[0].Html, "administrator access") {
		t.Error("body missing role text")
	}
}

func TestSendFailureWrapped(t *testing.T) {
	boom := errors.New("resend down")
	rc := &recordingClient{err: boom}
	if err := newTestSender(rc).SendWelcome(context.Background(), "ada@example.com", nil); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}
