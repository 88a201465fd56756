package services

import (
	"slices"

	"github.com/taskio/taskio-web/internal/models"
)

// Route names of the browser shell.
const (
	RouteLogin           = "login"
	RouteRegister        = "register"
	RouteResetPassword   = "reset-password"
	RouteMagicLogin      = "magic-login"
	RouteVerifyMagicLink = "verify-magic-link"
	RouteDashboard       = "dashboard"
	RouteProfile         = "profile"
	RouteProjectDetails  = "project-details"
	RouteNotification    = "notification"
	RouteHistory         = "history"
	RouteAnalytics       = "analytics"
)

var bothRoles = []models.Role{models.RoleManager, models.RoleMember}

// guardedRoutes maps each protected route to the roles allowed in.
var guardedRoutes = map[string][]models.Role{
	RouteDashboard:      bothRoles,
	RouteProfile:        bothRoles,
	RouteProjectDetails: bothRoles,
	RouteNotification:   bothRoles,
	RouteAnalytics:      bothRoles,
	RouteHistory:        {models.RoleManager},
}

var publicRoutes = []string{
	RouteLogin, RouteRegister, RouteResetPassword, RouteMagicLogin, RouteVerifyMagicLink,
}

func IsPublicRoute(route string) bool {
	return slices.Contains(publicRoutes, route)
}

// RouteRoles returns the roles allowed on a guarded route.
func RouteRoles(route string) ([]models.Role, bool) {
	roles, ok := guardedRoutes[route]
	return roles, ok
}

// GuardedRoutes lists the protected route names.
func GuardedRoutes() []string {
	names := make([]string, 0, len(guardedRoutes))
	for name := range guardedRoutes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Allowed reports whether the session holds a token and one of roles.
func Allowed(sess *models.Session, roles []models.Role) bool {
	return sess.Authenticated() && slices.Contains(roles, sess.Role)
}

// CanEnter applies the route guard. Unknown routes are never enterable;
// the shell sends them to login.
func CanEnter(sess *models.Session, route string) bool {
	if IsPublicRoute(route) {
		return true
	}
	roles, ok := guardedRoutes[route]
	return ok && Allowed(sess, roles)
}
