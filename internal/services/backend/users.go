package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskio/taskio-web/internal/models"
)

type Users struct {
	c *Client
}

func NewUsers(c *Client) *Users {
	return &Users{c: c}
}

type existsReply struct {
	Exists bool `json:"exists"`
}

// GET /check-username?username=
func (u *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	var out existsReply
	err := u.c.do(ctx, http.MethodGet, "/check-username?username="+url.QueryEscape(username), nil, &out)
	return out.Exists, err
}

// GET /check-email?email=
func (u *Users) EmailExists(ctx context.Context, email string) (bool, error) {
	var out existsReply
	err := u.c.do(ctx, http.MethodGet, "/check-email?email="+url.QueryEscape(email), nil, &out)
	return out.Exists, err
}

// GET /api/check-user-active?email=
func (u *Users) IsActive(ctx context.Context, email string) (bool, error) {
	var out struct {
		Active bool `json:"active"`
	}
	err := u.c.do(ctx, http.MethodGet, "/api/check-user-active?email="+url.QueryEscape(email), nil, &out)
	return out.Active, err
}

// GET /users/:id
func (u *Users) Get(ctx context.Context, id string) (*models.User, error) {
	var out models.User
	if err := u.c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GET /users
func (u *Users) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := u.c.do(ctx, http.MethodGet, "/users", nil, &out)
	return out, err
}

// GET /users/active
func (u *Users) Active(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := u.c.do(ctx, http.MethodGet, "/users/active", nil, &out)
	return out, err
}

// POST /users/:id/change-password
func (u *Users) ChangePassword(ctx context.Context, id string, req models.ChangePasswordRequest) error {
	return u.c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(id)+"/change-password", req, nil)
}

// PUT /users/:id/deactivate
func (u *Users) Deactivate(ctx context.Context, id string) error {
	return u.c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id)+"/deactivate", nil, nil)
}
