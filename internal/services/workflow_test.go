package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/pkg/response"
)

func workflowBackend() *fakeBackend {
	fb := newFakeBackend()
	fb.tasks.tasks = []models.Task{
		{ID: "t1", Name: "Design", Status: models.StatusDone, ProjectID: "p1"},
		{ID: "t2", Name: "Build", Status: models.StatusInProgress, ProjectID: "p1"},
		{ID: "t3", Name: "Ship", Status: models.StatusPending, ProjectID: "p1"},
	}
	fb.workflows.flows = []models.Workflow{
		{TaskID: "t2", ProjectID: "p1", DependencyTask: []string{"t1"}, IsActive: true},
		{TaskID: "t3", ProjectID: "p1", DependencyTask: []string{"t2"}, IsActive: false},
	}
	return fb
}

func TestDependencyPicks(t *testing.T) {
	got := DependencyPicks("t1", []string{"t1", "t2", "", "t3", "t2"})
	want := []string{"t2", "t3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DependencyPicks() = %v, want %v", got, want)
	}
}

func TestWorkflow_LoadGraph(t *testing.T) {
	fb := workflowBackend()
	svc := NewWorkflowService(fb.api(), NewEventHub(), 400, 300, 50)
	ws := testWorkspace(t, fb.api(), models.RoleMember, "u1")

	g, err := svc.LoadGraph(context.Background(), ws, "p1")
	if err != nil {
		t.Fatalf("LoadGraph() error = %v", err)
	}
	if len(g.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 1 || g.Edges[0].Source != "t1" || g.Edges[0].Target != "t2" {
		t.Errorf("expected only the active edge t1 -> t2, got %+v", g.Edges)
	}
	for _, n := range g.Nodes {
		if n.X < 0 || n.X > g.Width || n.Y < 0 || n.Y > g.Height {
			t.Errorf("node %s outside viewport: (%f, %f)", n.ID, n.X, n.Y)
		}
		if n.Label == n.ID {
			t.Errorf("node %s should carry its task name", n.ID)
		}
	}
}

func TestWorkflow_SelfDependencyFiltered(t *testing.T) {
	fb := workflowBackend()
	svc := NewWorkflowService(fb.api(), NewEventHub(), 400, 300, 50)
	ws := testWorkspace(t, fb.api(), models.RoleMember, "u1")

	_, err := svc.SetDependencies(context.Background(), ws, "p1", "t3", []string{"t3"})
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.Message != MsgNoDependencies {
		t.Fatalf("expected no-dependencies error, got %v", err)
	}
	if fb.log.count("Workflows.Create") != 0 {
		t.Error("self-only pick must not reach the backend")
	}

	g, err := svc.SetDependencies(context.Background(), ws, "p1", "t3", []string{"t3", "t1"})
	if err != nil {
		t.Fatalf("SetDependencies() error = %v", err)
	}
	last := fb.workflows.flows[len(fb.workflows.flows)-1]
	if !reflect.DeepEqual(last.DependencyTask, []string{"t1"}) {
		t.Errorf("self should be dropped from submission, got %v", last.DependencyTask)
	}
	if !reflect.DeepEqual(g.Dependencies["t3"], []string{"t1"}) {
		t.Errorf("graph not refreshed, dependencies %v", g.Dependencies)
	}
}

func TestWorkflow_CycleTextVerbatim(t *testing.T) {
	fb := workflowBackend()
	fb.workflows.createErr = apiErr(400, "Cycle detected: t1 -> t2 -> t1")
	svc := NewWorkflowService(fb.api(), NewEventHub(), 400, 300, 50)
	ws := testWorkspace(t, fb.api(), models.RoleMember, "u1")

	_, err := svc.SetDependencies(context.Background(), ws, "p1", "t1", []string{"t2"})
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Message != "Cycle detected: t1 -> t2 -> t1" || appErr.Modal != response.ModalError {
		t.Errorf("unexpected error %+v", appErr)
	}
}

func TestWorkflow_DragPinsNode(t *testing.T) {
	fb := workflowBackend()
	svc := NewWorkflowService(fb.api(), NewEventHub(), 400, 300, 50)
	ws := testWorkspace(t, fb.api(), models.RoleMember, "u1")

	if _, err := svc.Drag(ws, "p1", "t1", 10, 10); err == nil {
		t.Fatal("drag before load should fail")
	}
	if _, err := svc.LoadGraph(context.Background(), ws, "p1"); err != nil {
		t.Fatal(err)
	}
	g, err := svc.Drag(ws, "p1", "t1", 5000, -20)
	if err != nil {
		t.Fatalf("Drag() error = %v", err)
	}
	for _, n := range g.Nodes {
		if n.ID != "t1" {
			continue
		}
		if !n.Pinned || n.X > g.Width || n.Y < 0 {
			t.Errorf("dragged node should be pinned inside the viewport, got %+v", n)
		}
	}
}

func TestWorkflow_BackfillsMissingLabels(t *testing.T) {
	fb := workflowBackend()
	// a dependency from another listing only resolvable by id
	fb.workflows.flows = append(fb.workflows.flows, models.Workflow{TaskID: "t3", ProjectID: "p1", DependencyTask: []string{"ext"}, IsActive: true})
	hub := NewEventHub()
	svc := NewWorkflowService(fb.api(), hub, 400, 300, 50)
	ws := testWorkspace(t, fb.api(), models.RoleMember, "u1")
	events := hub.Subscribe(ws.Session.ID, "tab")

	fb.tasks.mu.Lock()
	fb.tasks.tasks = append(fb.tasks.tasks, models.Task{ID: "ext", Name: "Vendor API", ProjectID: "p9"})
	fb.tasks.mu.Unlock()

	g, err := svc.LoadGraph(context.Background(), ws, "p1")
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range g.Nodes {
		if n.ID == "ext" && n.Label != "ext" {
			t.Errorf("unresolved label should fall back to the id, got %q", n.Label)
		}
	}

	select {
	case ev := <-events:
		if ev.Type != EventGraph {
			t.Fatalf("expected graph event, got %s", ev.Type)
		}
		graph := ev.Data.(*Graph)
		for _, n := range graph.Nodes {
			if n.ID == "ext" && n.Label != "Vendor API" {
				t.Errorf("label not back-filled: %q", n.Label)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no graph event after label back-fill")
	}
}
