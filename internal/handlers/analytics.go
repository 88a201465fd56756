package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/response"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GET /api/analytics
func (h *AnalyticsHandler) Get(c *gin.Context) {
	response.Success(c, h.analytics.Load(c.Request.Context(), middleware.GetWorkspace(c)))
}
