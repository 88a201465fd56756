package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskio/taskio-web/internal/models"
)

type Auth struct {
	c *Client
}

func NewAuth(c *Client) *Auth {
	return &Auth{c: c}
}

// POST /login
func (a *Auth) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := a.c.do(ctx, http.MethodPost, "/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// POST /register
func (a *Auth) Register(ctx context.Context, user models.User) error {
	return a.c.do(ctx, http.MethodPost, "/register", user, nil)
}

// POST /reset-password
func (a *Auth) ResetPassword(ctx context.Context, email string) error {
	return a.c.do(ctx, http.MethodPost, "/reset-password", map[string]string{"email": email}, nil)
}

// POST /send-magic-link
func (a *Auth) SendMagicLink(ctx context.Context, req models.MagicLinkRequest) error {
	return a.c.do(ctx, http.MethodPost, "/send-magic-link", req, nil)
}

// GET /verify-magic-link?token=
func (a *Auth) VerifyMagicLink(ctx context.Context, token string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	path := "/verify-magic-link?token=" + url.QueryEscape(token)
	if err := a.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
