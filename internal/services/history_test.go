package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/pkg/response"
)

func historyBackend() *fakeBackend {
	fb := newFakeBackend()
	fb.projects.projects["p1"] = &models.Project{ID: "p1", Title: "Sprint 1", ManagerID: "m1"}
	fb.projects.projects["p2"] = &models.Project{ID: "p2", Title: "Sprint 2", ManagerID: "m1"}
	fb.projects.projects["p9"] = &models.Project{ID: "p9", Title: "Foreign", ManagerID: "m2"}
	fb.users.users["m1"] = models.User{ID: "m1", Username: "boss"}
	fb.users.users["u1"] = models.User{ID: "u1", Username: "ana"}
	fb.tasks.tasks = []models.Task{{ID: "t1", Name: "Design", ProjectID: "p1"}}

	base := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	fb.events.events = []models.Event{
		{Type: "MemberAdded", Time: base, ProjectID: "p1", Event: models.EventPayload{ProjectID: "p1", ManagerID: "m1", MemberID: "u1"}},
		{Type: "TaskStatusChanged", Time: base.Add(2 * time.Hour), ProjectID: "p1", Event: models.EventPayload{ProjectID: "p1", TaskID: "t1", PreviousStatus: "pending", CurrentStatus: "done"}},
		{Type: "ProjectCreated", Time: base.Add(time.Hour), ProjectID: "p2", Event: models.EventPayload{ProjectID: "p2", ManagerID: "m1"}},
		{Type: "ProjectCreated", Time: base.Add(3 * time.Hour), ProjectID: "p9", Event: models.EventPayload{ProjectID: "p9", ManagerID: "m2"}},
	}
	return fb
}

func TestHistory_ManagerOnly(t *testing.T) {
	fb := historyBackend()
	svc := NewHistoryService(fb.api(), time.UTC)
	ws := testWorkspace(t, fb.api(), models.RoleMember, "u1")

	_, err := svc.Load(context.Background(), ws, "")
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.Code != 403 {
		t.Fatalf("expected 403 for members, got %v", err)
	}
	if fb.log.total() != 0 {
		t.Errorf("no backend call expected, got %v", fb.log.calls)
	}
}

func TestHistory_OwnProjectsNewestFirst(t *testing.T) {
	fb := historyBackend()
	svc := NewHistoryService(fb.api(), time.UTC)
	ws := testWorkspace(t, fb.api(), models.RoleManager, "m1")

	view, err := svc.Load(context.Background(), ws, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(view.Projects) != 2 {
		t.Errorf("expected the manager's 2 projects as options, got %+v", view.Projects)
	}
	if len(view.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(view.Entries))
	}
	for i := 1; i < len(view.Entries); i++ {
		if view.Entries[i].Time.After(view.Entries[i-1].Time) {
			t.Fatalf("entries not newest first: %v", view.Entries)
		}
	}
	for _, e := range view.Entries {
		if e.ProjectID == "p9" {
			t.Error("foreign project leaked into history")
		}
	}

	top := view.Entries[0]
	if top.TaskName != "Design" || top.ProjectTitle != "Sprint 1" {
		t.Errorf("names not resolved: %+v", top)
	}
	if top.When != "01.05.2024 10:30" {
		t.Errorf("unexpected time format %q", top.When)
	}
	last := view.Entries[2]
	if last.ManagerName != "boss" || last.MemberName != "ana" {
		t.Errorf("user names not resolved: %+v", last)
	}
}

func TestHistory_FilterAndCache(t *testing.T) {
	fb := historyBackend()
	svc := NewHistoryService(fb.api(), time.UTC)
	ws := testWorkspace(t, fb.api(), models.RoleManager, "m1")

	view, err := svc.Load(context.Background(), ws, "p2")
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Entries) != 1 || view.Entries[0].ProjectID != "p2" || view.Selected != "p2" {
		t.Fatalf("filter not applied: %+v", view)
	}

	lookups := fb.log.count("Users.Get")
	if _, err := svc.Load(context.Background(), ws, "p2"); err != nil {
		t.Fatal(err)
	}
	if fb.log.count("Users.Get") != lookups {
		t.Error("resolved names should be cached across loads")
	}
}

func TestAnalytics_FailuresLeaveReportsEmpty(t *testing.T) {
	fb := newFakeBackend()
	fb.analytics.countErr = apiErr(500, "down")
	fb.analytics.statusCount = &models.StatusCount{Done: 2, Pending: 1}
	svc := NewAnalyticsService(fb.api())
	ws := testWorkspace(t, fb.api(), models.RoleMember, "u1")

	view := svc.Load(context.Background(), ws)
	if view.TaskCount != nil {
		t.Error("failed report should stay empty")
	}
	if view.StatusCount == nil || view.StatusCount.Done != 2 {
		t.Errorf("status report missing: %+v", view.StatusCount)
	}
	if len(view.Projects) != 1 || view.CompletionOnTime != nil {
		t.Errorf("unexpected reports: %+v", view)
	}
}
