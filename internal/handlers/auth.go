package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/logger"
	"github.com/taskio/taskio-web/pkg/response"
)

type AuthHandler struct {
	accounts *services.AccountService
	cookie   *middleware.SessionCookie
}

func NewAuthHandler(accounts *services.AccountService, cookie *middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{accounts: accounts, cookie: cookie}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Role     models.Role `json:"role"`
	UserID   string      `json:"user_id"`
	Redirect string      `json:"redirect"`
}

// Login exchanges credentials for a session cookie
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewValidation(services.MsgAllFieldsRequired))
		return
	}

	ws, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.startSession(c, ws)
}

// startSession sets the cookie and answers with where the shell goes next.
func (h *AuthHandler) startSession(c *gin.Context, ws *services.Workspace) {
	if err := h.cookie.Set(c, ws.Session.ID); err != nil {
		logger.Error().Err(err).Msg("failed to seal session cookie")
		response.Error(c, response.NewServerError(services.MsgLoginFailed).WithModal(response.ModalError))
		return
	}
	response.Success(c, LoginResult{
		Role:     ws.Session.Role,
		UserID:   ws.Session.UserID,
		Redirect: "/" + services.RouteDashboard,
	})
}

// Logout ends the session and clears the cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if ws := middleware.GetWorkspace(c); ws != nil {
		if err := h.accounts.Logout(c.Request.Context(), ws); err != nil {
			logger.Warn().Err(err).Str("session", ws.Session.ID).Msg("failed to remove session record")
		}
	}
	h.cookie.Clear(c)
	response.Success(c, gin.H{"redirect": "/" + services.RouteLogin})
}

// Register creates an account
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewValidation(services.MsgAllFieldsRequired))
		return
	}

	msg, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"message": msg, "redirect": "/" + services.RouteLogin})
}

type EmailRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// ResetPassword asks the backend to mail a new password
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewValidation(services.MsgResetEmailRequired))
		return
	}

	msg, err := h.accounts.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": msg})
}

// SendMagicLink mails a one-time login link
// POST /api/auth/magic-link
func (h *AuthHandler) SendMagicLink(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewValidation(services.MsgAllFieldsRequired))
		return
	}

	msg, err := h.accounts.SendMagicLink(c.Request.Context(), req.Email, req.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": msg})
}

// VerifyMagicLink logs in with the token from a magic link
// POST /api/auth/verify-magic-link
func (h *AuthHandler) VerifyMagicLink(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Token == "" {
		req.Token = c.Query("token")
	}

	ws, err := h.accounts.VerifyMagicLink(c.Request.Context(), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.startSession(c, ws)
}
