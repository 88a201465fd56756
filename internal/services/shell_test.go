package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/taskio/taskio-web/internal/models"
)

func TestShell_TickCountsTickInterval(t *testing.T) {
	fb := newFakeBackend()
	store := NewMemorySessionStore(testSealer(t))
	hub := NewEventHub()
	sess := &models.Session{ID: "s1", Token: "tok", Role: models.RoleManager, UserID: "m1"}
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatal(err)
	}

	expired := make(chan string, 1)
	opts := ShellOptions{IdleBudget: 2 * time.Second, TickInterval: 500 * time.Millisecond, PollInterval: time.Hour}
	shell := newShell(sess, opts, store, fb.notifications, hub, func(id string) { expired <- id })
	events := hub.Subscribe(sess.ID, "tab")

	for i := 0; i < 4; i++ {
		shell.tick()
	}
	if got := shell.Elapsed(); got != 2 {
		t.Errorf("Elapsed() after 4 ticks of 500ms = %d, want 2", got)
	}
	stored, err := store.Load(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ElapsedSeconds != 2 {
		t.Errorf("persisted %d seconds, want 2", stored.ElapsedSeconds)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected %s before the budget ran out", ev.Type)
	default:
	}

	shell.tick()
	select {
	case ev := <-events:
		if ev.Type != EventSessionExpiring {
			t.Errorf("got %s, want %s", ev.Type, EventSessionExpiring)
		}
	default:
		t.Fatal("budget exhausted without a warning")
	}
	select {
	case id := <-expired:
		if id != sess.ID {
			t.Errorf("expired %q, want %q", id, sess.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("expiry callback not called")
	}
}

func TestShell_IdleBudgetIsTimeNotTicks(t *testing.T) {
	tests := []struct {
		name  string
		tick  time.Duration
		ticks int
		want  time.Duration
	}{
		{"sub-second ticks", 250 * time.Millisecond, 6, 1500 * time.Millisecond},
		{"one second ticks", time.Second, 3, 3 * time.Second},
		{"two second ticks", 2 * time.Second, 2, 4 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &models.Session{ID: "s1", Token: "tok", Role: models.RoleManager, UserID: "m1"}
			opts := ShellOptions{IdleBudget: time.Minute, TickInterval: tt.tick, PollInterval: time.Hour}
			shell := newShell(sess, opts, NewMemorySessionStore(testSealer(t)), nil, NewEventHub(), nil)
			for i := 0; i < tt.ticks; i++ {
				shell.tick()
			}
			if got := shell.Idle(); got != tt.want {
				t.Errorf("Idle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShell_ConcurrentNavigationKeepsTimersInStep(t *testing.T) {
	fb := newFakeBackend()
	m, _ := newTestManager(t, fb, fastOptions())

	ws, err := m.Create(context.Background(), &models.LoginResponse{AccessToken: "tok", Role: models.RoleManager, UserID: "m1"})
	if err != nil {
		t.Fatal(err)
	}

	routes := []string{RouteLogin, RouteDashboard}
	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ws.Shell.Navigate(routes[(i+round)%2])
			}()
		}
		wg.Wait()

		route := ws.Shell.Route()
		if IsPublicRoute(route) == ws.Shell.TimersRunning() {
			t.Fatalf("round %d: route %q with timers running = %v", round, route, ws.Shell.TimersRunning())
		}
	}
}
