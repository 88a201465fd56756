package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/response"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the panel loaded when the shell entered the notification
// view. The panel is loaded here if navigation has not done it yet, or on
// ?refresh=1.
// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	ws := middleware.GetWorkspace(c)

	panel := h.notifications.View(ws)
	if panel.Items == nil || c.Query("refresh") != "" {
		loaded, err := h.notifications.Open(c.Request.Context(), ws)
		if err != nil {
			response.Error(c, err)
			return
		}
		panel = *loaded
	}
	response.Success(c, panel)
}
