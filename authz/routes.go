package authz

import "github.com/harikrishnanklcs24-creator/vitalytics-ai/models"

// Well-known routes of the dashboard.
const (
	RouteLanding = "/"
	RouteLogin   = "/login"
	RouteSignup  = "/signup"

	RouteDashboard = "/dashboard"
	RouteLogHealth = "/log-health"
	RouteAnalytics = "/analytics"
	RouteEnquiries = "/enquiries"
	RouteSettings  = "/settings"

	RouteAdmin          = "/admin"
	RouteAdminUsers     = "/admin/users"
	RouteAdminAnalytics = "/admin/analytics"
	RouteAdminSettings  = "/admin/settings"
)

// DefaultRules is the dashboard's navigation table.
func DefaultRules() []models.RouteRule {
	return []models.RouteRule{
		{Path: RouteLanding, Label: "Home", Access: models.AccessPublic},
		{Path: RouteLogin, Label: "Login", Access: models.AccessPublic},
		{Path: RouteSignup, Label: "Sign Up", Access: models.AccessPublic},

		{Path: RouteDashboard, Label: "Dashboard", InMenu: true},
		{Path: RouteLogHealth, Label: "Log Health", InMenu: true},
		{Path: RouteAnalytics, Label: "Analytics", InMenu: true},
		{Path: RouteEnquiries, Label: "Enquiries", InMenu: true},
		{Path: RouteSettings, Label: "Settings", InMenu: true},

		{Path: RouteAdminUsers, Label: "Users", Access: models.AccessAdmin, InMenu: true},
		{Path: RouteAdminAnalytics, Label: "Admin Analytics", Access: models.AccessAdmin, InMenu: true},
		{Path: RouteAdminSettings, Label: "Admin Settings", Access: models.AccessAdmin, InMenu: true},
		{Path: RouteAdmin, Label: "Admin", Access: models.AccessAdmin, Subtree: true},
	}
}

// Default returns a view over DefaultRules.
func Default() *View {
	return New(DefaultRules())
}
