// Package assistant is the dashboard chat helper.
//
// Ask is asynchronous from the caller's point of view: the responder runs on
// its own goroutine and the call gives up when the timeout or the caller's
// context ends first.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/i18n"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

// ErrAssistantUnavailable is returned when no reply arrives in time or the responder fails.
var ErrAssistantUnavailable = errors.New("assistant unavailable")

const (
	DefaultTimeout = 10 * time.Second
	MaxPromptRunes = 2000
)

// Responder produces a reply for a prompt.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// Reply is one assistant message.
type Reply struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type Options struct {
	Timeout time.Duration
	Now     func() time.Time
	Logger  *slog.Logger
}

type Service struct {
	responder Responder
	timeout   time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// New builds a Service around responder.
func New(responder Responder, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		responder: responder,
		timeout:   opts.Timeout,
		now:       opts.Now,
		log:       logger.For(opts.Logger, "assistant"),
	}
}

// Ask sends prompt to the responder and waits for the reply.
func (s *Service) Ask(ctx context.Context, prompt string) (Reply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Reply{}, fmt.Errorf("%w: empty message", pkg.ErrBadRequest)
	}
	if len([]rune(prompt)) > MaxPromptRunes {
		return Reply{}, fmt.Errorf("%w: message longer than %d characters", pkg.ErrBadRequest, MaxPromptRunes)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1) // buffered so a late responder never blocks

	go func() {
		text, err := s.responder.Respond(ctx, prompt)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			s.log.Warn("responder failed", "error", r.err)
			return Reply{}, fmt.Errorf("%w: %w", ErrAssistantUnavailable, r.err)
		}
		return Reply{Text: r.text, At: s.now()}, nil
	case <-ctx.Done():
		s.log.Warn("no reply in time", "timeout", s.timeout, "error", ctx.Err())
		return Reply{}, fmt.Errorf("%w: %w", ErrAssistantUnavailable, ctx.Err())
	}
}

// CannedResponder answers every prompt with a fixed placeholder after Delay.
type CannedResponder struct {
	Delay time.Duration
	Text  string
}

// NewCannedResponder returns the placeholder reply in lang, sent after one second.
func NewCannedResponder(lang string) *CannedResponder {
	if err := i18n.LoadEmbedded(); err != nil {
		slog.Error("failed to load translations", "component", "assistant", "error", err)
	}
	return &CannedResponder{
		Delay: time.Second,
		Text:  i18n.NewLocalizer(lang).T("assistant.reply"),
	}
}

func (c *CannedResponder) Respond(ctx context.Context, prompt string) (string, error) {
	t := time.NewTimer(c.Delay)
	defer t.Stop()

	select {
	case <-t.C:
		return c.Text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
