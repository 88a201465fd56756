package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskio/taskio-web/internal/models"
)

type Analytics struct {
	c *Client
}

func NewAnalytics(c *Client) *Analytics {
	return &Analytics{c: c}
}

func analyticsPath(report, userID string) string {
	return "/analytics/" + report + "/" + url.PathEscape(userID)
}

func (a *Analytics) TaskCount(ctx context.Context, userID string) (*models.TaskCount, error) {
	var out models.TaskCount
	if err := a.c.do(ctx, http.MethodGet, analyticsPath("countusers", userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Analytics) StatusCount(ctx context.Context, userID string) (*models.StatusCount, error) {
	var out models.StatusCount
	if err := a.c.do(ctx, http.MethodGet, analyticsPath("countusersbystatus", userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Analytics) TaskProjects(ctx context.Context, userID string) (*models.UserTaskProjects, error) {
	var out models.UserTaskProjects
	if err := a.c.do(ctx, http.MethodGet, analyticsPath("usertaskproject", userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Analytics) CompletionOnTime(ctx context.Context, userID string) ([]models.ProjectCompletion, error) {
	var out []models.ProjectCompletion
	err := a.c.do(ctx, http.MethodGet, analyticsPath("project-completion-ontime", userID), nil, &out)
	return out, err
}
