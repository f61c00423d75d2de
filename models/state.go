package models

// Status is the lifecycle phase of the session store.
type Status string

const (
	StatusInit     Status = "init"
	StatusLoading  Status = "loading"
	StatusResolved Status = "resolved"
)

// Profile carries user-facing identity details. It is loaded independently of
// the session and may lag behind it.
type Profile struct {
	UserID   string  `json:"user_id"`
	FullName *string `json:"full_name"`
}

// State is an immutable snapshot of the session store.
// Session is non-nil exactly when Role is not RoleAnonymous.
type State struct {
	Status  Status
	Session *Session
	Profile *Profile
	Role    Role
	// Version increases with every committed transition. Consumers notified
	// out of order can drop snapshots older than one they already applied.
	Version uint64
}

// Resolved reports whether the initial restore has completed.
func (s State) Resolved() bool {
	return s.Status == StatusResolved
}

// AnonymousState returns the resolved signed-out state.
func AnonymousState() State {
	return State{Status: StatusResolved, Role: RoleAnonymous}
}
