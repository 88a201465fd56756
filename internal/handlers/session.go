package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/response"
)

type SessionHandler struct {
	sessions *services.SessionManager
}

func NewSessionHandler(sessions *services.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// State reports the shell's route, badge and idle counter. It does not count
// as activity.
// GET /api/session
func (h *SessionHandler) State(c *gin.Context) {
	ws := middleware.GetWorkspace(c)
	response.Success(c, ws.Shell.State())
}

type NavigateRequest struct {
	Route string `json:"route" binding:"required"`
}

// Navigate moves the shell to another view
// POST /api/session/navigate
func (h *SessionHandler) Navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "route is required")
		return
	}

	state, err := h.sessions.Navigate(c.Request.Context(), middleware.GetWorkspace(c), req.Route)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, state)
}

// KeepAlive restarts the idle countdown from a mouse or key event
// POST /api/session/keepalive
func (h *SessionHandler) KeepAlive(c *gin.Context) {
	ws := middleware.GetWorkspace(c)
	ws.Shell.Touch()
	response.Success(c, ws.Shell.State())
}
