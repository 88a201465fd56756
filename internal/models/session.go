package models

import "time"

type Role string

const (
	RoleManager Role = "Manager"
	RoleMember  Role = "Member"
)

func (r Role) Valid() bool {
	return r == RoleManager || r == RoleMember
}

// LoginResponse is returned by POST /login and GET /verify-magic-link.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        Role   `json:"role"`
	UserID      string `json:"user_id"`
}

// Session is the explicit, server-held replacement for the token/role/user id
// entries the browser used to keep in local storage.
type Session struct {
	ID             string    `json:"id"`
	Token          string    `json:"-"`
	Role           Role      `json:"role"`
	UserID         string    `json:"user_id"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Authenticated reports whether the session carries a usable token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Expired reports whether the backend token behind the session has lapsed.
// A zero ExpiresAt means the token carried no expiry claim.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s *Session) IsManager() bool {
	return s != nil && s.Role == RoleManager
}
