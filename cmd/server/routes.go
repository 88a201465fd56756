package main

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/logger"
	"github.com/taskio/taskio-web/pkg/response"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(svc.cfg.Server.AllowedOrigins))
	r.Use(middleware.Session(svc.sessions, svc.cookie))

	// Multipart parts above this spill to disk; the size limit itself is
	// applied per file by the attachment service.
	r.MaxMultipartMemory = svc.cfg.Uploads.MaxFileBytes

	// Health check
	r.GET("/health", svc.healthHandler.Check)

	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", svc.limiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/reset-password", svc.authHandler.ResetPassword)
			auth.POST("/magic-link", svc.authHandler.SendMagicLink)
			auth.POST("/verify-magic-link", svc.authHandler.VerifyMagicLink)
		}
		api.POST("/auth/logout", svc.authHandler.Logout)

		// Reads that must not count as activity
		passive := api.Group("", middleware.APIGuard())
		{
			passive.GET("/session", svc.sessionHandler.State)
			passive.GET("/events", svc.sseHandler.Stream)
		}

		// Protected routes
		protected := api.Group("", middleware.APIGuard(), middleware.Activity())
		{
			protected.POST("/session/navigate", svc.sessionHandler.Navigate)
			protected.POST("/session/keepalive", svc.sessionHandler.KeepAlive)

			// Dashboard
			protected.GET("/dashboard", svc.dashboardHandler.Get)
			protected.POST("/dashboard/projects", middleware.APIGuard(models.RoleManager), svc.dashboardHandler.CreateProject)
			protected.POST("/dashboard/reset", svc.dashboardHandler.ResetForm)

			// Board
			protected.GET("/projects/:id/board", svc.boardHandler.Get)
			protected.POST("/projects/:id/board/move", svc.boardHandler.Move)
			protected.POST("/projects/:id/board/tasks", middleware.APIGuard(models.RoleManager), svc.boardHandler.CreateTask)
			protected.GET("/projects/:id/board/candidates", svc.boardHandler.Candidates)
			protected.POST("/projects/:id/board/members", middleware.APIGuard(models.RoleManager), svc.boardHandler.AddMembers)
			protected.POST("/projects/:id/board/members/remove", middleware.APIGuard(models.RoleManager), svc.boardHandler.RemoveMembers)

			// Workflow graph
			protected.GET("/projects/:id/workflow", svc.workflowHandler.Get)
			protected.GET("/projects/:id/workflow/candidates", svc.workflowHandler.Candidates)
			protected.POST("/projects/:id/workflow/dependencies", svc.workflowHandler.SetDependencies)
			protected.POST("/projects/:id/workflow/drag", svc.workflowHandler.Drag)

			// Tasks
			protected.GET("/tasks/:id/members", svc.boardHandler.TaskMembers)
			protected.POST("/tasks/:id/members", middleware.APIGuard(models.RoleManager), svc.boardHandler.AddTaskMember)
			protected.DELETE("/tasks/:id/members/:userId", middleware.APIGuard(models.RoleManager), svc.boardHandler.RemoveTaskMember)
			protected.GET("/tasks/:id/files", svc.attachmentHandler.Files)
			protected.POST("/tasks/:id/upload", svc.attachmentHandler.Upload)
			protected.GET("/tasks/:id/download/:file", svc.attachmentHandler.Download)

			// Notifications, analytics, profile
			protected.GET("/notifications", svc.notificationHandler.List)
			protected.GET("/analytics", svc.analyticsHandler.Get)
			protected.GET("/profile", svc.profileHandler.Get)
			protected.POST("/profile/password", svc.profileHandler.ChangePassword)
			protected.POST("/profile/deactivate", svc.profileHandler.Deactivate)

			// History (manager only)
			protected.GET("/history", middleware.APIGuard(models.RoleManager), svc.historyHandler.Get)
		}
	}
}

// registerPages serves the embedded shell. Guarded pages redirect to /login
// when the session may not enter them; everything else falls back to the
// shell so the browser router can take over.
func registerPages(r *gin.Engine, static fs.FS) {
	serveIndex := func(c *gin.Context) {
		data, err := fs.ReadFile(static, "index.html")
		if err != nil {
			c.String(http.StatusNotFound, "index.html not found")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	}

	r.GET("/", func(c *gin.Context) {
		target := services.RouteLogin
		if ws := middleware.GetWorkspace(c); ws != nil {
			target = services.RouteDashboard
		}
		c.Redirect(http.StatusFound, "/"+target)
	})

	for _, route := range services.GuardedRoutes() {
		r.GET("/"+route, middleware.PageGuard(route), serveIndex)
		r.GET("/"+route+"/:id", middleware.PageGuard(route), serveIndex)
	}

	fileServer := http.FileServer(http.FS(static))
	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path[1:]
		if strings.HasPrefix(path, "api/") {
			response.NotFound(c, "not found")
			return
		}
		if path != "" {
			if _, err := fs.Stat(static, path); err == nil {
				fileServer.ServeHTTP(c.Writer, c.Request)
				return
			}
		}
		serveIndex(c)
	})
}
