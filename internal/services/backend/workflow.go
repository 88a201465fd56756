package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskio/taskio-web/internal/models"
)

type Workflows struct {
	c *Client
}

func NewWorkflows(c *Client) *Workflows {
	return &Workflows{c: c}
}

// Create declares task dependencies. The backend rejects cycles with a 400.
// POST /workflow/createWorkflow
func (w *Workflows) Create(ctx context.Context, wf models.Workflow) error {
	return w.c.do(ctx, http.MethodPost, "/workflow/createWorkflow", wf, nil)
}

// GET /workflow/project/:projectId
func (w *Workflows) ByProject(ctx context.Context, projectID string) ([]models.Workflow, error) {
	var out []models.Workflow
	err := w.c.do(ctx, http.MethodGet, "/workflow/project/"+url.PathEscape(projectID), nil, &out)
	return out, err
}
