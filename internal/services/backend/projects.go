package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskio/taskio-web/internal/models"
)

type Projects struct {
	c *Client
}

func NewProjects(c *Client) *Projects {
	return &Projects{c: c}
}

// GET /projects
func (p *Projects) List(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := p.c.do(ctx, http.MethodGet, "/projects", nil, &out)
	return out, err
}

// GET /projects/:id
func (p *Projects) Get(ctx context.Context, id string) (*models.Project, error) {
	var out models.Project
	if err := p.c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// POST /projects
func (p *Projects) Create(ctx context.Context, project models.Project) (*models.Project, error) {
	var out models.Project
	if err := p.c.do(ctx, http.MethodPost, "/projects", project, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckTitle asks whether the manager already owns a project with this title.
// The backend answers models.TitleExists or models.TitleNotFound as plain text.
// POST /projects/title/:managerId
func (p *Projects) CheckTitle(ctx context.Context, managerID, title string) (string, error) {
	return p.c.doText(ctx, http.MethodPost, "/projects/title/"+url.PathEscape(managerID), models.ProjectTitleCheck{Title: title})
}

// PUT /projects/:id/add-users
func (p *Projects) AddUsers(ctx context.Context, id string, userIDs []string) error {
	_, err := p.c.doText(ctx, http.MethodPut, "/projects/"+url.PathEscape(id)+"/add-users", models.ProjectUsersRequest{UserIDs: userIDs})
	return err
}

// PUT /projects/:id/remove-users
func (p *Projects) RemoveUsers(ctx context.Context, id string, userIDs []string) error {
	_, err := p.c.doText(ctx, http.MethodPut, "/projects/"+url.PathEscape(id)+"/remove-users", models.ProjectUsersRequest{UserIDs: userIDs})
	return err
}

// GET /projects/:id/users
func (p *Projects) Users(ctx context.Context, id string) ([]models.User, error) {
	var out []models.User
	err := p.c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id)+"/users", nil, &out)
	return out, err
}

// IsActive is false once the project has been completed.
// GET /projects/isActive/:id
func (p *Projects) IsActive(ctx context.Context, id string) (bool, error) {
	var out models.ProjectActive
	err := p.c.do(ctx, http.MethodGet, "/projects/isActive/"+url.PathEscape(id), nil, &out)
	return out.Result, err
}
