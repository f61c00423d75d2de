package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// pongWait allows three missed 30s heartbeats.
	pongWait = 90 * time.Second

	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client is one server-side WebSocket connection. ReadPump and WritePump run
// on separate goroutines; gorilla allows one concurrent reader and one writer.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	userID    string
	sessionID string
	send      chan []byte
	closed    bool       // guarded by hub.mu; set before send is closed
	mu        sync.Mutex // serializes conn writes
}

// ReadPump reads client frames until the connection drops, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.hub.log.Warn("failed to set read deadline", "user_id", c.userID, "error", err)
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("unexpected close", "user_id", c.userID, "error", err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.hub.log.Debug("invalid frame", "user_id", c.userID, "error", err)
			continue
		}
		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.hub.log.Warn("failed to set read deadline", "user_id", c.userID, "error", err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})
	default:
		c.hub.log.Debug("unknown op", "user_id", c.userID, "op", event.Op)
	}
}

func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		c.hub.log.Error("failed to marshal event", "user_id", c.userID, "error", err)
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.log.Warn("send buffer full, dropping connection", "user_id", c.userID)
		go c.hub.drop(c)
	}
}

// WritePump drains send onto the socket until the hub closes the channel.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
