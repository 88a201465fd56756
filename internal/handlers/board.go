package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/response"
)

type BoardHandler struct {
	boards *services.BoardService
}

func NewBoardHandler(boards *services.BoardService) *BoardHandler {
	return &BoardHandler{boards: boards}
}

// Get returns the project board; ?refresh=1 reloads it from the backend.
// GET /api/projects/:id/board
func (h *BoardHandler) Get(c *gin.Context) {
	ws := middleware.GetWorkspace(c)
	projectID := c.Param("id")

	var (
		board *services.Board
		err   error
	)
	if c.Query("refresh") != "" {
		board, err = h.boards.Load(c.Request.Context(), ws, projectID)
	} else {
		board, err = h.boards.Board(c.Request.Context(), ws, projectID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, board)
}

type MoveRequest struct {
	TaskID string            `json:"task_id" binding:"required"`
	Status models.TaskStatus `json:"status" binding:"required"`
}

// Move drops a card into another column. On failure the reverted board is
// still returned.
// POST /api/projects/:id/board/move
func (h *BoardHandler) Move(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "task_id and status are required")
		return
	}

	board, err := h.boards.Move(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"), req.TaskID, req.Status)
	if err != nil {
		if board != nil {
			response.ErrorWithData(c, err, board)
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, board)
}

type CreateTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateTask adds a task to the project
// POST /api/projects/:id/board/tasks
func (h *BoardHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewValidation(services.MsgTaskNameRequired))
		return
	}

	board, err := h.boards.CreateTask(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"), req.Name, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, board)
}

type MembersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// AddMembers adds users to the project up to its capacity
// POST /api/projects/:id/board/members
func (h *BoardHandler) AddMembers(c *gin.Context) {
	var req MembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_ids are required")
		return
	}

	board, err := h.boards.AddMembers(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"), req.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, board)
}

// RemoveMembers removes users from the project
// POST /api/projects/:id/board/members/remove
func (h *BoardHandler) RemoveMembers(c *gin.Context) {
	var req MembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_ids are required")
		return
	}

	board, err := h.boards.RemoveMembers(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"), req.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, board)
}

// Candidates lists active users not yet in the project
// GET /api/projects/:id/board/candidates
func (h *BoardHandler) Candidates(c *gin.Context) {
	users, err := h.boards.Candidates(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// TaskMembers lists the users assigned to a task
// GET /api/tasks/:id/members
func (h *BoardHandler) TaskMembers(c *gin.Context) {
	users, err := h.boards.TaskMembers(c.Request.Context(), middleware.GetWorkspace(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

type TaskMemberRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	UserID    string `json:"user_id" binding:"required"`
}

// AddTaskMember assigns a user to a task
// POST /api/tasks/:id/members
func (h *BoardHandler) AddTaskMember(c *gin.Context) {
	var req TaskMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "project_id and user_id are required")
		return
	}

	board, err := h.boards.AddTaskMember(c.Request.Context(), middleware.GetWorkspace(c), req.ProjectID, c.Param("id"), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, board)
}

// RemoveTaskMember unassigns a user from a task
// DELETE /api/tasks/:id/members/:userId?project_id=
func (h *BoardHandler) RemoveTaskMember(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		response.BadRequest(c, "project_id is required")
		return
	}

	board, err := h.boards.RemoveTaskMember(c.Request.Context(), middleware.GetWorkspace(c), projectID, c.Param("id"), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, board)
}
