package models

import "strings"

// User mirrors the backend user record. Password is only ever sent, never echoed.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
}

// FullName is what the board shows next to member avatars.
func (u User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}

// Public returns a copy safe to hand to the browser.
func (u User) Public() User {
	u.Password = ""
	return u
}

// ChangePasswordRequest is the body of POST /users/:id/change-password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// MagicLinkRequest is the body of POST /send-magic-link.
type MagicLinkRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Credentials is the body of POST /login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
