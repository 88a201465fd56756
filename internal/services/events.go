package services

import (
	"sync"
)

// Event types pushed to the browser.
const (
	EventBadge           = "badge"
	EventSessionExpiring = "session_expiring"
	EventLogout          = "logout"
	EventGraph           = "graph"
)

// SessionEvent is one server-sent event for a session's browser tabs.
type SessionEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// EventHub fans session events out to the SSE streams open for that session.
type EventHub struct {
	clients map[string]map[string]chan SessionEvent
	mu      sync.RWMutex
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]map[string]chan SessionEvent),
	}
}

// Subscribe registers a stream and returns a channel for receiving events.
// The channel is closed when the session ends.
func (h *EventHub) Subscribe(sessionID, clientID string) <-chan SessionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan SessionEvent, 32)
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[string]chan SessionEvent)
	}
	h.clients[sessionID][clientID] = ch
	return ch
}

func (h *EventHub) Unsubscribe(sessionID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	streams := h.clients[sessionID]
	if ch, ok := streams[clientID]; ok {
		close(ch)
		delete(streams, clientID)
	}
	if len(streams) == 0 {
		delete(h.clients, sessionID)
	}
}

// Publish sends ev to every stream of the session. Slow streams drop events.
func (h *EventHub) Publish(sessionID string, ev SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients[sessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// CloseSession ends every stream of the session.
func (h *EventHub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.clients[sessionID] {
		close(ch)
	}
	delete(h.clients, sessionID)
}

func (h *EventHub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}
