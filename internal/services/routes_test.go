package services

import (
	"testing"

	"github.com/taskio/taskio-web/internal/models"
)

func TestCanEnter(t *testing.T) {
	manager := &models.Session{Token: "t", Role: models.RoleManager}
	member := &models.Session{Token: "t", Role: models.RoleMember}
	noToken := &models.Session{Role: models.RoleManager}

	tests := []struct {
		name    string
		sess    *models.Session
		route   string
		allowed bool
	}{
		{"manager dashboard", manager, RouteDashboard, true},
		{"member dashboard", member, RouteDashboard, true},
		{"manager history", manager, RouteHistory, true},
		{"member history", member, RouteHistory, false},
		{"member analytics", member, RouteAnalytics, true},
		{"no token", noToken, RouteDashboard, false},
		{"nil session", nil, RouteProfile, false},
		{"nil session login", nil, RouteLogin, true},
		{"unknown route", manager, "admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEnter(tt.sess, tt.route); got != tt.allowed {
				t.Errorf("CanEnter(%q) = %v, expected %v", tt.route, got, tt.allowed)
			}
		})
	}
}

func TestAllowed_UnknownRole(t *testing.T) {
	sess := &models.Session{Token: "t", Role: "Admin"}
	if Allowed(sess, bothRoles) {
		t.Error("role outside the set should be refused")
	}
}
