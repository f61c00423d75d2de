// Package authz decides which routes a role may see and enter.
//
// The view is a pure function of (role, route) over a static route table.
// It holds no session state, so the shell and every guard can share one
// instance without locking.
package authz

import (
	"path"
	"strings"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
)

// Decision is the outcome for one (role, route) pair.
// Visible implies Allowed.
type Decision struct {
	Visible bool
	Allowed bool
}

// View evaluates routes against a route table.
type View struct {
	rules []models.RouteRule
	exact map[string]models.RouteRule
}

// New builds a view over rules. Paths are normalized; a later rule with the
// same path replaces an earlier one.
func New(rules []models.RouteRule) *View {
	v := &View{exact: make(map[string]models.RouteRule, len(rules))}
	for _, r := range rules {
		r.Path = Normalize(r.Path)
		if _, dup := v.exact[r.Path]; dup {
			for i := range v.rules {
				if v.rules[i].Path == r.Path {
					v.rules[i] = r
				}
			}
		} else {
			v.rules = append(v.rules, r)
		}
		v.exact[r.Path] = r
	}
	return v
}

// Decide returns the visibility and access decision for role on route.
func (v *View) Decide(role models.Role, route string) Decision {
	rule, known := v.Rule(route)
	allowed := satisfies(role, rule.Access)
	return Decision{
		Visible: known && rule.InMenu && allowed,
		Allowed: allowed,
	}
}

// Allowed is shorthand for Decide(role, route).Allowed.
func (v *View) Allowed(role models.Role, route string) bool {
	return v.Decide(role, route).Allowed
}

// Rule resolves route to its governing rule. Exact matches win over subtree
// matches, and the longest subtree prefix wins among those. Unknown routes
// resolve to an untagged rule, which requires an authenticated role.
func (v *View) Rule(route string) (models.RouteRule, bool) {
	path := Normalize(route)
	if r, ok := v.exact[path]; ok {
		return r, true
	}

	var best models.RouteRule
	found := false
	for _, r := range v.rules {
		if !r.Subtree || !underPath(path, r.Path) {
			continue
		}
		if !found || len(r.Path) > len(best.Path) {
			best, found = r, true
		}
	}
	if found {
		return best, true
	}
	return models.RouteRule{Path: path, Access: models.AccessDefault}, false
}

// Menu lists the menu entries visible to role, in table order.
func (v *View) Menu(role models.Role) []models.NavEntry {
	entries := make([]models.NavEntry, 0, len(v.rules))
	for _, r := range v.rules {
		if !r.InMenu || !satisfies(role, r.Access) {
			continue
		}
		entries = append(entries, models.NavEntry{
			Label:         r.Label,
			Route:         r.Path,
			RequiresAdmin: r.Access == models.AccessAdmin,
		})
	}
	return entries
}

// Rules returns a copy of the route table.
func (v *View) Rules() []models.RouteRule {
	out := make([]models.RouteRule, len(v.rules))
	copy(out, v.rules)
	return out
}

// Normalize strips query and fragment and cleans the path, so
// "/dashboard/?x=1", "//dashboard" and "/admin/../dashboard" all resolve to
// "/dashboard".
func Normalize(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	route = strings.TrimSpace(route)
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return path.Clean(route)
}

func underPath(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// satisfies is the single place where access tags meet roles.
func satisfies(role models.Role, access models.Access) bool {
	switch access {
	case models.AccessPublic:
		return true
	case models.AccessAdmin:
		return role == models.RoleAdmin
	default:
		return role.Authenticated()
	}
}
