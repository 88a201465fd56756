package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskio/taskio-web/internal/models"
)

type Notifications struct {
	c *Client
}

func NewNotifications(c *Client) *Notifications {
	return &Notifications{c: c}
}

// GET /notifications/user/:id
func (n *Notifications) ForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var out []models.Notification
	err := n.c.do(ctx, http.MethodGet, "/notifications/user/"+url.PathEscape(userID), nil, &out)
	return out, err
}

// PUT /notifications/:id/mark-as-read
func (n *Notifications) MarkRead(ctx context.Context, id string) error {
	return n.c.do(ctx, http.MethodPut, "/notifications/"+url.PathEscape(id)+"/mark-as-read", struct{}{}, nil)
}
