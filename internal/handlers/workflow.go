package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/response"
)

type WorkflowHandler struct {
	workflows *services.WorkflowService
}

func NewWorkflowHandler(workflows *services.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows}
}

// Get returns the laid out dependency graph; ?refresh=1 reloads it.
// GET /api/projects/:id/workflow
func (h *WorkflowHandler) Get(c *gin.Context) {
	ws := middleware.GetWorkspace(c)
	projectID := c.Param("id")

	var (
		graph *services.Graph
		err   error
	)
	if c.Query("refresh") != "" {
		graph, err = h.workflows.LoadGraph(c.Request.Context(), ws, projectID)
	} else {
		graph, err = h.workflows.Graph(c.Request.Context(), ws, projectID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, graph)
}

// Candidates lists the tasks that may become dependencies of ?task_id=
// GET /api/projects/:id/workflow/candidates
func (h *WorkflowHandler) Candidates(c *gin.Context) {
	tasks, err := h.workflows.Candidates(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"), c.Query("task_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tasks)
}

type DependenciesRequest struct {
	TaskID       string   `json:"task_id" binding:"required"`
	Dependencies []string `json:"dependencies"`
}

// SetDependencies submits the dependency set of a task
// POST /api/projects/:id/workflow/dependencies
func (h *WorkflowHandler) SetDependencies(c *gin.Context) {
	var req DependenciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "task_id is required")
		return
	}

	graph, err := h.workflows.SetDependencies(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"), req.TaskID, req.Dependencies)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, graph)
}

type DragRequest struct {
	NodeID string  `json:"node_id" binding:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Drag pins a node where it was dropped
// POST /api/projects/:id/workflow/drag
func (h *WorkflowHandler) Drag(c *gin.Context) {
	var req DragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "node_id is required")
		return
	}

	graph, err := h.workflows.Drag(middleware.GetWorkspace(c), c.Param("id"), req.NodeID, req.X, req.Y)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, graph)
}
