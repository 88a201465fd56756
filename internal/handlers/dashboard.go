package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/response"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get lists the caller's projects along with the create-project form.
// GET /api/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	view, err := h.dashboard.Load(c.Request.Context(), middleware.GetWorkspace(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// CreateProject validates the form and creates the project
// POST /api/dashboard/projects
func (h *DashboardHandler) CreateProject(c *gin.Context) {
	var form services.ProjectForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, response.NewValidation(services.MsgAllFieldsRequired))
		return
	}

	view, err := h.dashboard.CreateProject(c.Request.Context(), middleware.GetWorkspace(c), form, time.Now())
	if err != nil {
		response.ErrorWithData(c, err, view)
		return
	}
	response.Created(c, view)
}

// ResetForm clears the form and its messages
// POST /api/dashboard/reset
func (h *DashboardHandler) ResetForm(c *gin.Context) {
	response.Success(c, h.dashboard.ResetForm(middleware.GetWorkspace(c)))
}
