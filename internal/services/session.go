package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services/backend"
	"github.com/taskio/taskio-web/internal/utils"
	"github.com/taskio/taskio-web/pkg/logger"
	"github.com/taskio/taskio-web/pkg/response"
)

// Logout reasons sent with the logout event.
const (
	LogoutUser        = "logout"
	LogoutIdle        = "idle"
	LogoutExpired     = "expired"
	LogoutDeactivated = "deactivated"
)

// Workspace is everything the server holds for one logged-in browser:
// the session, its shell timers and the transient view state. View state is
// last-fetch-wins; every mutation re-reads what it changed.
type Workspace struct {
	Session *models.Session
	Shell   *Shell

	mu            sync.Mutex
	dashboard     DashboardView
	boards        map[string]*Board
	graphs        map[string]*graphState
	notifications NotificationPanel
	names         *nameCache
}

func newWorkspace(sess *models.Session, shell *Shell) *Workspace {
	return &Workspace{
		Session: sess,
		Shell:   shell,
		boards:  make(map[string]*Board),
		graphs:  make(map[string]*graphState),
		names:   newNameCache(),
	}
}

// Context attaches the session's bearer token to ctx for backend calls.
func (w *Workspace) Context(ctx context.Context) context.Context {
	return backend.WithToken(ctx, w.Session.Token)
}

// SessionManager creates, resolves and tears down sessions.
type SessionManager struct {
	store         SessionStore
	hub           *EventHub
	api           API
	opts          ShellOptions
	notifications *NotificationService
	now           func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
	ended      map[string]time.Time
}

// endedRetention is how long a destroyed session id is refused reattachment.
const endedRetention = 10 * time.Minute

func NewSessionManager(store SessionStore, hub *EventHub, api API, opts ShellOptions) *SessionManager {
	return &SessionManager{
		store:         store,
		hub:           hub,
		api:           api,
		opts:          opts,
		notifications: NewNotificationService(api),
		now:           time.Now,
		workspaces:    make(map[string]*Workspace),
		ended:         make(map[string]time.Time),
	}
}

func (m *SessionManager) Hub() *EventHub {
	return m.hub
}

// Create opens a session from a login or magic-link reply.
func (m *SessionManager) Create(ctx context.Context, login *models.LoginResponse) (*Workspace, error) {
	if login == nil || login.AccessToken == "" {
		return nil, response.NewUnauthorized("Login failed. Please try again.")
	}

	sess := &models.Session{
		ID:        uuid.NewString(),
		Token:     login.AccessToken,
		Role:      login.Role,
		UserID:    login.UserID,
		CreatedAt: m.now(),
	}

	// The reply is authoritative; claims only fill gaps.
	if claims, err := utils.ReadTokenClaims(login.AccessToken); err == nil {
		if claims.ExpiresAt != nil {
			sess.ExpiresAt = claims.ExpiresAt.Time
		}
		if sess.UserID == "" {
			sess.UserID = claims.ID
		}
		if !sess.Role.Valid() {
			sess.Role = models.Role(claims.Role)
		}
	}
	if !sess.Role.Valid() {
		return nil, fmt.Errorf("login reply carries unknown role %q", login.Role)
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	ws := m.attach(sess)
	logger.Info().Str("session", sess.ID).Str("role", string(sess.Role)).Msg("session created")
	return ws, nil
}

func (m *SessionManager) build(sess *models.Session) *Workspace {
	shell := newShell(sess, m.opts, m.store, m.api.Notifications, m.hub, m.expire)
	return newWorkspace(sess, shell)
}

func (m *SessionManager) attach(sess *models.Session) *Workspace {
	ws := m.build(sess)

	m.mu.Lock()
	m.workspaces[sess.ID] = ws
	m.mu.Unlock()
	return ws
}

// Get resolves a session id to its workspace. Sessions persisted by an
// earlier process are reattached with their idle counter intact.
func (m *SessionManager) Get(ctx context.Context, id string) (*Workspace, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	m.mu.Lock()
	ws, ok := m.workspaces[id]
	m.mu.Unlock()

	if !ok {
		sess, err := m.store.Load(ctx, id)
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, utils.ErrUnseal) {
			return nil, ErrNoSession
		}
		if err != nil {
			return nil, err
		}
		if ws, ok = m.attachOnce(sess); !ok {
			return nil, ErrNoSession
		}
	}

	if ws.Session.Expired(m.now()) {
		m.Destroy(ctx, id, LogoutExpired)
		return nil, ErrSessionExpired
	}
	return ws, nil
}

// attachOnce reattaches a stored session. Of two concurrent reattaches one
// workspace wins and the other is dropped before its timers ever start.
// A destroyed session is never reattached.
func (m *SessionManager) attachOnce(sess *models.Session) (*Workspace, bool) {
	fresh := m.build(sess)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, gone := m.ended[sess.ID]; gone {
		return nil, false
	}
	if ws, ok := m.workspaces[sess.ID]; ok {
		return ws, true
	}
	m.workspaces[sess.ID] = fresh
	return fresh, true
}

// Navigate moves the session's shell to route, applying the route guard and
// the notification view's enter and leave effects.
func (m *SessionManager) Navigate(ctx context.Context, ws *Workspace, route string) (ShellState, error) {
	if !CanEnter(ws.Session, route) {
		return ShellState{}, response.NewUnauthorized("not allowed on this page")
	}

	prev := ws.Shell.Navigate(route)
	if route == RouteNotification && prev != RouteNotification {
		if _, err := m.notifications.Open(ctx, ws); err != nil {
			logger.Warn().Err(err).Str("session", ws.Session.ID).Msg("failed to load notifications")
		}
	}
	if prev == RouteNotification && route != RouteNotification {
		m.notifications.Close(ctx, ws)
	}
	return ws.Shell.State(), nil
}

// Destroy ends a session: timers stop, open streams get a logout event and
// close, and the stored record is removed. Destroying twice is a no-op.
func (m *SessionManager) Destroy(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	ws, ok := m.workspaces[id]
	delete(m.workspaces, id)
	m.ended[id] = m.now()
	m.mu.Unlock()

	// the record goes before teardown, which may wait on a running poll
	err := m.store.Delete(ctx, id)

	if ok {
		ws.Shell.Close()
		m.hub.Publish(id, SessionEvent{Type: EventLogout, Data: reason})
		m.hub.CloseSession(id)
		logger.Info().Str("session", id).Str("reason", reason).Msg("session destroyed")
	}
	return err
}

func (m *SessionManager) expire(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Destroy(ctx, id, LogoutIdle); err != nil {
		logger.Warn().Err(err).Str("session", id).Msg("failed to remove idle session")
	}
}

// Sweep destroys attached sessions whose token has lapsed. Requests catch
// these lazily; Sweep also stops the timers of sessions nobody visits.
func (m *SessionManager) Sweep(ctx context.Context) int {
	now := m.now()
	m.mu.Lock()
	for id, at := range m.ended {
		if now.Sub(at) > endedRetention {
			delete(m.ended, id)
		}
	}
	var expired []string
	for id, ws := range m.workspaces {
		if ws.Session.Expired(now) {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		if err := m.Destroy(ctx, id, LogoutExpired); err != nil {
			logger.Warn().Err(err).Str("session", id).Msg("failed to remove expired session")
		}
	}
	return len(expired)
}

// Active is the number of sessions attached to this process.
func (m *SessionManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

// Shutdown stops every session's timers without deleting the stored records,
// so sessions survive a restart.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	all := make([]*Workspace, 0, len(m.workspaces))
	for id, ws := range m.workspaces {
		all = append(all, ws)
		delete(m.workspaces, id)
	}
	m.mu.Unlock()

	for _, ws := range all {
		ws.Shell.Close()
		m.hub.CloseSession(ws.Session.ID)
	}
}
