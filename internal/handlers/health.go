package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/services"
)

// Pinger checks a session store backend.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	sessions *services.SessionManager
	store    string
	ping     Pinger
}

// NewHealthHandler builds the health check. ping may be nil for the memory store.
func NewHealthHandler(sessions *services.SessionManager, store string, ping Pinger) *HealthHandler {
	return &HealthHandler{sessions: sessions, store: store, ping: ping}
}

// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":   "ok",
		"service":  "taskio-web",
		"store":    h.store,
		"sessions": h.sessions.Active(),
	}

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["error"] = err.Error()
		}
	}
	c.JSON(status, body)
}
