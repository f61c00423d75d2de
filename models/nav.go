package models

// Access tags a route with the minimum role it requires.
type Access string

const (
	// AccessDefault routes require any authenticated role. Untagged routes get this.
	AccessDefault Access = ""
	AccessPublic  Access = "public"
	AccessAdmin   Access = "admin"
)

// RouteRule is one entry of the navigation table.
type RouteRule struct {
	Path   string
	Label  string
	Access Access
	// InMenu rules are listed by the navigation shell.
	InMenu bool
	// Subtree rules also cover every path below Path.
	Subtree bool
}

// NavEntry is a menu item exposed by the navigation shell.
type NavEntry struct {
	Label         string `json:"label"`
	Route         string `json:"route"`
	RequiresAdmin bool   `json:"requires_admin"`
}
