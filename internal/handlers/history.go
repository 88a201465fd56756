package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/response"
)

type HistoryHandler struct {
	history *services.HistoryService
}

func NewHistoryHandler(history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// Get lists the events of the manager's projects, optionally one project.
// GET /api/history?project_id=
func (h *HistoryHandler) Get(c *gin.Context) {
	view, err := h.history.Load(c.Request.Context(), middleware.GetWorkspace(c), c.Query("project_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}
