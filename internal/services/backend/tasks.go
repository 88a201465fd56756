package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/taskio/taskio-web/internal/models"
)

type Tasks struct {
	c *Client
}

func NewTasks(c *Client) *Tasks {
	return &Tasks{c: c}
}

// FilePart is one file of a multipart upload.
type FilePart struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Download is an attachment stream. The caller must close Body.
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// GET /tasks
func (t *Tasks) List(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	err := t.c.do(ctx, http.MethodGet, "/tasks", nil, &out)
	return out, err
}

// GET /tasks/:id
func (t *Tasks) Get(ctx context.Context, id string) (*models.Task, error) {
	var out models.Task
	if err := t.c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// POST /tasks
func (t *Tasks) Create(ctx context.Context, req models.NewTaskRequest) (*models.Task, error) {
	var out models.Task
	if err := t.c.do(ctx, http.MethodPost, "/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PUT /tasks/:id
func (t *Tasks) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error {
	return t.c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), models.StatusUpdate{Status: status}, nil)
}

// PUT /tasks/:id/users/:userId
func (t *Tasks) AddUser(ctx context.Context, id, userID string) error {
	return t.c.do(ctx, http.MethodPut, memberPath(id, userID), struct{}{}, nil)
}

// DELETE /tasks/:id/users/:userId
func (t *Tasks) RemoveUser(ctx context.Context, id, userID string) error {
	return t.c.do(ctx, http.MethodDelete, memberPath(id, userID), nil, nil)
}

func memberPath(id, userID string) string {
	return "/tasks/" + url.PathEscape(id) + "/users/" + url.PathEscape(userID)
}

// GET /tasks/:id/users
func (t *Tasks) Users(ctx context.Context, id string) ([]models.User, error) {
	var out []models.User
	err := t.c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id)+"/users", nil, &out)
	return out, err
}

// GET /tasks/:id/member-of/:userId
func (t *Tasks) IsMember(ctx context.Context, id, userID string) (bool, error) {
	var out models.MembershipCheck
	path := "/tasks/" + url.PathEscape(id) + "/member-of/" + url.PathEscape(userID)
	err := t.c.do(ctx, http.MethodGet, path, nil, &out)
	return out.IsMember, err
}

// Upload sends files as one multipart form with fields taskID and file.
// POST /tasks/upload
func (t *Tasks) Upload(ctx context.Context, id string, files []FilePart) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("taskID", id); err != nil {
		return err
	}
	for _, f := range files {
		part, err := form.CreateFormFile("file", f.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	if err := form.Close(); err != nil {
		return err
	}

	req, err := t.c.newRequest(ctx, http.MethodPost, "/tasks/upload", &buf, form.FormDataContentType())
	if err != nil {
		return err
	}
	resp, err := t.c.send(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Files lists the names of the files attached to a task.
// GET /tasks/files/:id
func (t *Tasks) Files(ctx context.Context, id string) ([]string, error) {
	var out []string
	err := t.c.do(ctx, http.MethodGet, "/tasks/files/"+url.PathEscape(id), nil, &out)
	return out, err
}

// GET /tasks/:id/download/:file
func (t *Tasks) Download(ctx context.Context, id, fileName string) (*Download, error) {
	path := "/tasks/" + url.PathEscape(id) + "/download/" + url.PathEscape(fileName)
	req, err := t.c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := t.c.send(req)
	if err != nil {
		return nil, err
	}
	return &Download{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}
