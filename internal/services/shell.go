package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services/backend"
	"github.com/taskio/taskio-web/pkg/logger"
)

// ShellOptions sizes the two per-session timers.
type ShellOptions struct {
	IdleBudget   time.Duration
	TickInterval time.Duration
	PollInterval time.Duration
}

func (o ShellOptions) budgetSeconds() int {
	return int(o.IdleBudget / time.Second)
}

// ShellState is what the navigation frame renders.
type ShellState struct {
	Route             string      `json:"route"`
	Role              models.Role `json:"role"`
	UserID            string      `json:"user_id"`
	Badge             bool        `json:"badge"`
	ElapsedSeconds    int         `json:"elapsed_seconds"`
	IdleBudgetSeconds int         `json:"idle_budget_seconds"`
	TimersRunning     bool        `json:"timers_running"`
}

// Shell owns the idle countdown and the notification poll of one session.
// Both run on a single Scheduler that is torn down on logout, expiry and
// navigation to a public route.
type Shell struct {
	sess          *models.Session
	opts          ShellOptions
	store         SessionStore
	notifications NotificationAPI
	hub           *EventHub
	onExpire      func(sessionID string)

	// navMu orders route changes with the timer start and stop they cause.
	navMu sync.Mutex

	mu     sync.Mutex
	route  string
	badge  bool
	idle   time.Duration
	sched  *Scheduler
	closed bool

	expiring atomic.Bool
}

func newShell(sess *models.Session, opts ShellOptions, store SessionStore, notifications NotificationAPI, hub *EventHub, onExpire func(string)) *Shell {
	return &Shell{
		sess:          sess,
		opts:          opts,
		store:         store,
		notifications: notifications,
		hub:           hub,
		onExpire:      onExpire,
		idle:          time.Duration(sess.ElapsedSeconds) * time.Second,
	}
}

// Navigate records the current route and starts or stops the timers.
// It returns the route being left.
func (s *Shell) Navigate(route string) string {
	s.navMu.Lock()
	defer s.navMu.Unlock()

	s.mu.Lock()
	prev := s.route
	s.route = route
	s.mu.Unlock()

	if IsPublicRoute(route) {
		s.stopTimers()
	} else {
		s.startTimers()
	}
	return prev
}

func (s *Shell) Route() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

func (s *Shell) startTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.sched != nil {
		return
	}
	sched := NewScheduler()
	sched.Every("idle", s.opts.TickInterval, s.tick)
	sched.Every("notifications", s.opts.PollInterval, s.poll)
	sched.Start()
	s.sched = sched
}

// stopTimers must not run on a scheduler goroutine: Stop waits for jobs.
func (s *Shell) stopTimers() {
	s.mu.Lock()
	sched := s.sched
	s.sched = nil
	s.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
}

func (s *Shell) TimersRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil && s.sched.Running()
}

// Close stops the timers for good.
func (s *Shell) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stopTimers()
}

func (s *Shell) tick() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.idle+s.opts.TickInterval > s.opts.IdleBudget {
		s.mu.Unlock()
		s.expire()
		return
	}
	before := s.idle / time.Second
	s.idle += s.opts.TickInterval
	after := s.idle / time.Second
	s.mu.Unlock()

	// the store keeps whole seconds
	if after != before {
		s.persistElapsed(int(after))
	}
}

// expire runs teardown on its own goroutine because the caller is a job
// of the scheduler being stopped.
func (s *Shell) expire() {
	if !s.expiring.CompareAndSwap(false, true) {
		return
	}
	logger.Info().Str("session", s.sess.ID).Msg("session idle budget exhausted")
	s.hub.Publish(s.sess.ID, SessionEvent{Type: EventSessionExpiring})
	if s.onExpire != nil {
		go s.onExpire(s.sess.ID)
	}
}

func (s *Shell) persistElapsed(elapsed int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.store.SetElapsed(ctx, s.sess.ID, elapsed); err != nil {
		logger.Warn().Err(err).Str("session", s.sess.ID).Msg("failed to persist idle counter")
	}
}

func (s *Shell) poll() {
	if s.sess.IsManager() || s.Route() == RouteNotification {
		return
	}

	ctx, cancel := context.WithTimeout(backend.WithToken(context.Background(), s.sess.Token), s.opts.PollInterval+5*time.Second)
	defer cancel()

	list, err := s.notifications.ForUser(ctx, s.sess.UserID)
	if err != nil {
		logger.Debug().Err(err).Str("session", s.sess.ID).Msg("notification poll failed")
		return
	}
	// the view may have opened while the request was in flight
	if s.Route() == RouteNotification {
		return
	}
	s.setBadge(models.AnyUnread(list))
}

func (s *Shell) setBadge(badge bool) {
	s.mu.Lock()
	changed := s.badge != badge
	s.badge = badge
	closed := s.closed
	s.mu.Unlock()

	if changed && !closed {
		s.hub.Publish(s.sess.ID, SessionEvent{Type: EventBadge, Data: badge})
	}
}

// ClearBadge is called when the notification view opens.
func (s *Shell) ClearBadge() {
	s.setBadge(false)
}

func (s *Shell) Badge() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.badge
}

// Touch records user activity and restarts the idle countdown.
func (s *Shell) Touch() {
	s.mu.Lock()
	if s.closed || s.idle == 0 {
		s.mu.Unlock()
		return
	}
	s.idle = 0
	s.mu.Unlock()

	s.persistElapsed(0)
}

// Elapsed is the idle time in whole seconds.
func (s *Shell) Elapsed() int {
	return int(s.Idle() / time.Second)
}

func (s *Shell) Idle() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

func (s *Shell) State() ShellState {
	s.mu.Lock()
	st := ShellState{
		Route:             s.route,
		Role:              s.sess.Role,
		UserID:            s.sess.UserID,
		Badge:             s.badge,
		ElapsedSeconds:    int(s.idle / time.Second),
		IdleBudgetSeconds: s.opts.budgetSeconds(),
	}
	s.mu.Unlock()

	st.TimersRunning = s.TimersRunning()
	return st
}
