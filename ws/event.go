// Package ws pushes session lifecycle events to connected clients.
//
// A client connects with its access token (ws://host/ws?token=...). The hub
// tracks connections per user; services publish through EventPublisher when
// a session is revoked or an account's role changes so clients can refresh
// or sign out without polling.
package ws

// Event is one frame on the wire.
//
// Seq increases by one for every outbound event so a client can detect gaps.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server
const (
	OpHeartbeat = "heartbeat"
)

// Server → Client
const (
	OpReady          = "ready"
	OpHeartbeatAck   = "heartbeat_ack"
	OpSessionRevoked = "session_revoked"
	OpRoleChanged    = "role_changed"
)

// ReadyData is sent once after the connection is registered.
type ReadyData struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// SessionRevokedData names the gateway session that no longer exists.
type SessionRevokedData struct {
	SessionID string `json:"session_id"`
}

// RoleChangedData carries the account's new role claim.
type RoleChangedData struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
