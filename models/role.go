package models

// Role is the coarse authorization level derived from the current session.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

// AdminClaim is the only gateway role claim that grants RoleAdmin.
const AdminClaim = "admin"

// RoleFromClaim maps a gateway role claim for an authenticated session to a Role.
// Anything other than the exact admin claim yields RoleUser; callers without a
// session use RoleAnonymous directly.
func RoleFromClaim(claim string) Role {
	if claim == AdminClaim {
		return RoleAdmin
	}
	return RoleUser
}

// RoleForSession returns RoleAnonymous for a nil session and the claim-derived role otherwise.
func RoleForSession(s *Session, claim string) Role {
	if s == nil {
		return RoleAnonymous
	}
	return RoleFromClaim(claim)
}

// Authenticated reports whether the role belongs to a signed-in principal.
func (r Role) Authenticated() bool {
	return r == RoleUser || r == RoleAdmin
}

// Valid reports whether r is one of the stored account roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}
