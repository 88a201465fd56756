package services

import (
	"context"
	"sort"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const MsgNoNotifications = "You have no notifications."

// markReadConcurrency bounds the PUTs issued when the panel closes.
const markReadConcurrency = 4

type NotificationPanel struct {
	Items        []models.Notification `json:"items"`
	EmptyMessage string                `json:"empty_message,omitempty"`
}

type NotificationService struct {
	api API
}

func NewNotificationService(api API) *NotificationService {
	return &NotificationService{api: api}
}

// Open loads the user's notifications newest first and clears the badge.
func (s *NotificationService) Open(ctx context.Context, ws *Workspace) (*NotificationPanel, error) {
	list, err := s.api.Notifications.ForUser(ws.Context(ctx), ws.Session.UserID)
	if err != nil {
		return nil, fromBackend(err, "There was an error loading notifications.")
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	panel := NotificationPanel{Items: list}
	if len(list) == 0 {
		panel.Items = []models.Notification{}
		panel.EmptyMessage = MsgNoNotifications
	}

	ws.mu.Lock()
	ws.notifications = panel
	ws.mu.Unlock()

	ws.Shell.ClearBadge()
	return &panel, nil
}

func (s *NotificationService) View(ws *Workspace) NotificationPanel {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.notifications
}

// Close marks every unread notification shown in the panel as read.
// Failures are logged and not retried. It returns how many were marked.
func (s *NotificationService) Close(ctx context.Context, ws *Workspace) int {
	ws.mu.Lock()
	var unread []string
	for _, n := range ws.notifications.Items {
		if n.Unread() {
			unread = append(unread, n.ID)
		}
	}
	ws.mu.Unlock()

	if len(unread) == 0 {
		return 0
	}

	bctx := ws.Context(ctx)
	done := make([]bool, len(unread))
	var g errgroup.Group
	g.SetLimit(markReadConcurrency)
	for i, id := range unread {
		g.Go(func() error {
			if err := s.api.Notifications.MarkRead(bctx, id); err != nil {
				logger.Warn().Err(err).Str("notification", id).Msg("failed to mark notification read")
				return nil
			}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	marked := make(map[string]bool, len(unread))
	for i, id := range unread {
		if done[i] {
			marked[id] = true
		}
	}

	ws.mu.Lock()
	for i := range ws.notifications.Items {
		if marked[ws.notifications.Items[i].ID] {
			ws.notifications.Items[i].Status = models.Read
		}
	}
	ws.mu.Unlock()

	return len(marked)
}
