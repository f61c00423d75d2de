package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/ws"
)

// SessionTarget is the part of session.Store the watcher drives.
type SessionTarget interface {
	CurrentSession() *models.Session
	Revoke(ctx context.Context, sessionID string) bool
	Refresh(ctx context.Context) error
}

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Heartbeat is the client heartbeat interval. Default 30s.
	Heartbeat time.Duration
	// Backoff is the delay between reconnect attempts and idle polls. Default 2s.
	Backoff time.Duration
	Dialer  *websocket.Dialer
	Logger  *slog.Logger
}

// Watcher keeps a WebSocket open to the gateway while a session is live and
// applies server-pushed revocations and role changes to the store.
type Watcher struct {
	url       string
	target    SessionTarget
	token     func() string
	heartbeat time.Duration
	backoff   time.Duration
	dialer    *websocket.Dialer
	log       *slog.Logger
}

var errSessionEnded = errors.New("session ended")

// NewWatcher builds a watcher. baseURL is the gateway's HTTP base; token
// returns the current access token or "" when signed out.
func NewWatcher(baseURL string, target SessionTarget, token func() string, opts WatcherOptions) *Watcher {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 30 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Watcher{
		url:       wsURL(baseURL),
		target:    target,
		token:     token,
		heartbeat: opts.Heartbeat,
		backoff:   opts.Backoff,
		dialer:    opts.Dialer,
		log:       logger.For(opts.Logger, "watcher"),
	}
}

func wsURL(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

// Run blocks until ctx is done, reconnecting as needed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		if token := w.token(); token != "" {
			err := w.watch(ctx, token)
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, errSessionEnded):
				w.log.Info("session ended, waiting for sign-in")
			case err != nil:
				w.log.Warn("connection lost", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.backoff):
		}
	}
}

type inbound struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
}

func (w *Watcher) watch(ctx context.Context, token string) error {
	conn, _, err := w.dialer.DialContext(ctx, w.url+"?token="+url.QueryEscape(token), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go w.pump(ctx, conn, stop)

	for {
		var ev inbound
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		if err := w.handle(ctx, ev); err != nil {
			return err
		}
	}
}

// pump sends heartbeats and closes conn when ctx ends so ReadJSON unblocks.
// It is the only writer on conn.
func (w *Watcher) pump(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(w.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteJSON(ws.Event{Op: ws.OpHeartbeat}); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev inbound) error {
	switch ev.Op {
	case ws.OpSessionRevoked:
		var data ws.SessionRevokedData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			w.log.Warn("malformed event", "op", ev.Op, "error", err)
			return nil
		}
		if w.target.Revoke(ctx, data.SessionID) {
			w.log.Info("session revoked by gateway", "session_id", data.SessionID)
			return errSessionEnded
		}

	case ws.OpRoleChanged:
		var data ws.RoleChangedData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			w.log.Warn("malformed event", "op", ev.Op, "error", err)
			return nil
		}
		current := w.target.CurrentSession()
		if current == nil || current.UserID != data.UserID {
			return nil
		}
		if err := w.target.Refresh(ctx); err != nil {
			w.log.Warn("refresh after role change failed", "error", err)
			if w.target.CurrentSession() == nil {
				return errSessionEnded
			}
		}

	case ws.OpReady, ws.OpHeartbeatAck:
	default:
		w.log.Debug("ignoring op", "op", ev.Op)
	}
	return nil
}
