package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/logger"
)

const sseHeartbeat = 25 * time.Second

type SSEHandler struct {
	hub *services.EventHub
}

func NewSSEHandler(hub *services.EventHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream pushes session events until the client leaves or the session ends.
// GET /api/events
func (h *SSEHandler) Stream(c *gin.Context) {
	ws := middleware.GetWorkspace(c)
	sessionID := ws.Session.ID

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	events := h.hub.Subscribe(sessionID, clientID)
	defer h.hub.Unsubscribe(sessionID, clientID)

	// initial state so a reconnecting tab repaints its badge
	writeEvent(c.Writer, services.SessionEvent{Type: services.EventBadge, Data: ws.Shell.Badge()})
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			writeEvent(w, ev)
			return ev.Type != services.EventLogout
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func writeEvent(w io.Writer, ev services.SessionEvent) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		logger.Warn().Err(err).Str("event", ev.Type).Msg("failed to encode session event")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}
