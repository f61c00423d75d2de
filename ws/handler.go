package ws

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
)

// TokenValidator is the slice of the auth service the handler needs.
// Declared here so ws does not import services.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// Handler upgrades authenticated requests and registers them with the hub.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	upgrader       websocket.Upgrader
}

// NewHandler builds a handler. allowOrigin decides cross-origin upgrades; nil
// allows every origin.
func NewHandler(hub *Hub, tokenValidator TokenValidator, allowOrigin func(origin string) bool) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowOrigin == nil || origin == "" || allowOrigin(origin)
			},
		},
	}
}

// HandleConnection authenticates via ?token= since browsers cannot set
// headers on a WebSocket handshake.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warn("upgrade failed", "user_id", claims.UserID, "error", err)
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		userID:    claims.UserID,
		sessionID: claims.SessionID,
		send:      make(chan []byte, sendBufferSize),
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	client.sendEvent(Event{Op: OpReady, Data: ReadyData{UserID: claims.UserID, SessionID: claims.SessionID}})

	go client.WritePump()
	client.ReadPump()
}
