package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

type failingResponder struct{}

func (failingResponder) Respond(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("model offline")
}

func TestAskReturnsCannedReply(t *testing.T) {
	r := NewCannedResponder("en")
	r.Delay = 5 * time.Millisecond
	s := New(r, Options{Timeout: time.Second, Logger: logger.Discard()})

	reply, err := s.Ask(context.Background(), "How did I sleep?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(reply.Text, "assistant") {
		t.Errorf("reply = %q", reply.Text)
	}
	if reply.At.IsZero() {
		t.Error("reply timestamp not set")
	}
}

func TestAskTimesOut(t *testing.T) {
	s := New(&CannedResponder{Delay: time.Second, Text: "late"}, Options{Timeout: 10 * time.Millisecond, Logger: logger.Discard()})

	_, err := s.Ask(context.Background(), "hello")
	if !errors.Is(err, ErrAssistantUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want unavailable + deadline exceeded", err)
	}
}

func TestAskHonoursCallerCancel(t *testing.T) {
	s := New(&CannedResponder{Delay: time.Second}, Options{Logger: logger.Discard()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Ask(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want canceled", err)
	}
}

func TestAskResponderFailure(t *testing.T) {
	s := New(failingResponder{}, Options{Logger: logger.Discard()})
	if _, err := s.Ask(context.Background(), "hi"); !errors.Is(err, ErrAssistantUnavailable) {
		t.Errorf("err = %v, want ErrAssistantUnavailable", err)
	}
}

func TestAskRejectsBadInput(t *testing.T) {
	s := New(failingResponder{}, Options{Logger: logger.Discard()})

	for _, prompt := range []string{"", "   ", strings.Repeat("x", MaxPromptRunes+1)} {
		if _, err := s.Ask(context.Background(), prompt); !errors.Is(err, pkg.ErrBadRequest) {
			t.Errorf("prompt len %d: err = %v, want ErrBadRequest", len(prompt), err)
		}
	}
}
