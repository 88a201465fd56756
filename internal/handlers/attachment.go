package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/logger"
	"github.com/taskio/taskio-web/pkg/response"
)

type AttachmentHandler struct {
	attachments *services.AttachmentService
}

func NewAttachmentHandler(attachments *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Upload attaches the multipart "file" parts to a task
// POST /api/tasks/:id/upload
func (h *AttachmentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, response.NewValidation(services.MsgNoFiles))
		return
	}
	defer form.RemoveAll()

	headers := form.File["file"]
	files := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadOf(fh))
	}

	if err := h.attachments.Upload(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"), files); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": services.MsgUploaded, "count": len(files)})
}

func uploadOf(fh *multipart.FileHeader) services.Upload {
	return services.Upload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// Files lists the attachments of a task
// GET /api/tasks/:id/files
func (h *AttachmentHandler) Files(c *gin.Context) {
	files, err := h.attachments.Files(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, files)
}

// Download streams an attachment from the backend
// GET /api/tasks/:id/download/:file
func (h *AttachmentHandler) Download(c *gin.Context) {
	name := c.Param("file")
	dl, err := h.attachments.Download(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"), name)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		if cerr := dl.Body.Close(); cerr != nil {
			logger.Debug().Err(cerr).Str("file", name).Msg("failed to close download stream")
		}
	}()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, dl.ContentLength, contentType, dl.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
	})
}
