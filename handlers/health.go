package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the gateway can reach its database.
type HealthHandler struct {
	db      Pinger
	online  func() int
	started time.Time
}

// NewHealthHandler takes an optional online counter for connected push clients.
func NewHealthHandler(db Pinger, online func() int) *HealthHandler {
	return &HealthHandler{db: db, online: online, started: time.Now()}
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	OnlineUsers   int    `json:"online_users"`
}

// Health godoc
// GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		pkg.ErrorWithMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}
	if h.online != nil {
		resp.OnlineUsers = h.online()
	}
	pkg.JSON(w, http.StatusOK, resp)
}
