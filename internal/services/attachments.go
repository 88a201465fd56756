package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services/backend"
	"github.com/taskio/taskio-web/pkg/response"
)

const (
	MsgNoFiles       = "Select at least one file."
	MsgDuplicateFile = "A file with this name already exists for this task."
	MsgUploaded      = "Files uploaded successfully."
)

// Upload is one file picked in the browser.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// OversizedError lists the files refused by the size limit.
type OversizedError struct {
	Files []string
	Limit int64
}

func (e *OversizedError) Error() string {
	return fmt.Sprintf("The following files exceed the %d MB limit: %s", e.Limit/(1024*1024), strings.Join(e.Files, ", "))
}

type AttachmentService struct {
	api     API
	maxSize int64
}

func NewAttachmentService(api API, maxSize int64) *AttachmentService {
	return &AttachmentService{api: api, maxSize: maxSize}
}

// Oversized returns the names of files above the limit.
func (s *AttachmentService) Oversized(files []Upload) []string {
	var names []string
	for _, f := range files {
		if f.Size > s.maxSize {
			names = append(names, f.Name)
		}
	}
	return names
}

// Upload checks sizes, then the uploader's task membership, then sends every
// file in one request. A name clash comes back as the duplicate-file modal.
func (s *AttachmentService) Upload(ctx context.Context, ws *Workspace, taskID string, files []Upload) error {
	if len(files) == 0 {
		return response.NewValidation(MsgNoFiles)
	}
	if big := s.Oversized(files); len(big) > 0 {
		oversized := &OversizedError{Files: big, Limit: s.maxSize}
		return response.NewValidation(oversized.Error())
	}

	bctx := ws.Context(ctx)
	member, err := s.api.Tasks.IsMember(bctx, taskID, ws.Session.UserID)
	if err != nil {
		return fromBackend(err, "There was an error checking task membership.")
	}
	if !member {
		return response.NewForbidden(MsgNotMember).WithModal(response.ModalNotMember)
	}

	parts := make([]backend.FilePart, 0, len(files))
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			return response.NewBadRequest(fmt.Sprintf("Could not read %s.", f.Name))
		}
		defer rc.Close()
		parts = append(parts, backend.FilePart{Name: f.Name, Size: f.Size, Content: rc})
	}

	if err := s.api.Tasks.Upload(bctx, taskID, parts); err != nil {
		if backend.IsStatus(err, http.StatusConflict) {
			return response.NewConflict(MsgDuplicateFile).WithModal(response.ModalDuplicateFile)
		}
		return fromBackend(err, "There was an error uploading the files.")
	}
	return nil
}

// Files lists the attachments of a task.
func (s *AttachmentService) Files(ctx context.Context, ws *Workspace, taskID string) ([]models.TaskFile, error) {
	names, err := s.api.Tasks.Files(ws.Context(ctx), taskID)
	if err != nil {
		return nil, fromBackend(err, "There was an error loading the files.")
	}
	files := make([]models.TaskFile, 0, len(names))
	for _, n := range names {
		files = append(files, models.TaskFile{FileName: n})
	}
	return files, nil
}

// Download opens an attachment stream. The caller closes it.
func (s *AttachmentService) Download(ctx context.Context, ws *Workspace, taskID, fileName string) (*backend.Download, error) {
	dl, err := s.api.Tasks.Download(ws.Context(ctx), taskID, fileName)
	if err != nil {
		return nil, fromBackend(err, "There was an error downloading the file.")
	}
	return dl, nil
}
