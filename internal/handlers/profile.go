package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/response"
)

type ProfileHandler struct {
	accounts *services.AccountService
	cookie   *middleware.SessionCookie
}

func NewProfileHandler(accounts *services.AccountService, cookie *middleware.SessionCookie) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, cookie: cookie}
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	user, err := h.accounts.Profile(c.Request.Context(), middleware.GetWorkspace(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// ChangePassword
// POST /api/profile/password
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewValidation(services.MsgAllFieldsRequired))
		return
	}

	msg, err := h.accounts.ChangePassword(c.Request.Context(), middleware.GetWorkspace(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": msg})
}

// Deactivate disables the account and logs out
// POST /api/profile/deactivate
func (h *ProfileHandler) Deactivate(c *gin.Context) {
	if err := h.accounts.Deactivate(c.Request.Context(), middleware.GetWorkspace(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.cookie.Clear(c)
	response.Success(c, gin.H{"redirect": "/" + services.RouteLogin})
}
