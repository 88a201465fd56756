package backend

import (
	"context"
	"net/http"

	"github.com/taskio/taskio-web/internal/models"
)

// Events reads the project history stream kept by the event store.
type Events struct {
	c *Client
}

func NewEvents(c *Client) *Events {
	return &Events{c: c}
}

// GET /events
func (e *Events) List(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	err := e.c.do(ctx, http.MethodGet, "/events", nil, &out)
	return out, err
}
