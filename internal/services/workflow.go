package services

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services/backend"
	"github.com/taskio/taskio-web/pkg/logger"
	"github.com/taskio/taskio-web/pkg/response"
	"golang.org/x/sync/errgroup"
)

const (
	MsgNoDependencies  = "Select at least one task other than the task itself."
	MsgWorkflowFailed  = "There was an error saving the dependencies."
	labelFetchTimeout  = 10 * time.Second
	labelFetchParallel = 4
	edgeTypeDependsOn  = "depends_on"
)

type GraphNode struct {
	ID     string            `json:"id"`
	Label  string            `json:"label"`
	Status models.TaskStatus `json:"status,omitempty"`
	X      float64           `json:"x"`
	Y      float64           `json:"y"`
	Pinned bool              `json:"pinned"`
}

// GraphEdge points from a dependency to the task that waits on it.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Graph is the rendered dependency graph of one project.
type Graph struct {
	ProjectID    string              `json:"project_id"`
	Nodes        []GraphNode         `json:"nodes"`
	Edges        []GraphEdge         `json:"edges"`
	Dependencies map[string][]string `json:"dependencies"`
	Width        float64             `json:"width"`
	Height       float64             `json:"height"`
}

// graphState is the per-project graph kept in a workspace between requests.
type graphState struct {
	projectID string
	adj       map[string][]string
	nodes     []string
	status    map[string]models.TaskStatus
	labels    map[string]string
	layout    *Layout
}

func (g *graphState) edges() [][2]string {
	var out [][2]string
	for task, deps := range g.adj {
		for _, dep := range deps {
			out = append(out, [2]string{dep, task})
		}
	}
	slices.SortFunc(out, func(a, b [2]string) int {
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		if a[1] < b[1] {
			return -1
		}
		if a[1] > b[1] {
			return 1
		}
		return 0
	})
	return out
}

func (g *graphState) render() *Graph {
	out := &Graph{
		ProjectID:    g.projectID,
		Nodes:        make([]GraphNode, 0, len(g.nodes)),
		Edges:        []GraphEdge{},
		Dependencies: make(map[string][]string, len(g.adj)),
		Width:        g.layout.Width,
		Height:       g.layout.Height,
	}
	for _, id := range g.nodes {
		p, _ := g.layout.Position(id)
		label := g.labels[id]
		if label == "" {
			label = id
		}
		out.Nodes = append(out.Nodes, GraphNode{
			ID:     id,
			Label:  label,
			Status: g.status[id],
			X:      p.X,
			Y:      p.Y,
			Pinned: g.layout.Pinned(id),
		})
	}
	for _, e := range g.edges() {
		out.Edges = append(out.Edges, GraphEdge{Source: e[0], Target: e[1], Type: edgeTypeDependsOn})
	}
	for task, deps := range g.adj {
		out.Dependencies[task] = slices.Clone(deps)
	}
	return out
}

type WorkflowService struct {
	api        API
	hub        *EventHub
	width      float64
	height     float64
	iterations int
}

func NewWorkflowService(api API, hub *EventHub, width, height float64, iterations int) *WorkflowService {
	return &WorkflowService{api: api, hub: hub, width: width, height: height, iterations: iterations}
}

// LoadGraph fetches the project's workflow records and tasks and lays out
// the graph. Labels missing from the task list start as ids and are filled
// in the background; a graph event announces them.
func (s *WorkflowService) LoadGraph(ctx context.Context, ws *Workspace, projectID string) (*Graph, error) {
	var (
		flows []models.Workflow
		tasks []models.Task
	)
	g, gctx := errgroup.WithContext(ws.Context(ctx))
	g.Go(func() (err error) {
		flows, err = s.api.Workflows.ByProject(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = s.api.Tasks.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fromBackend(err, "There was an error loading the workflow.")
	}

	adj := make(map[string][]string)
	nodes := []string{}
	seen := make(map[string]bool)
	addNode := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			nodes = append(nodes, id)
		}
	}

	status := make(map[string]models.TaskStatus)
	labels := make(map[string]string)
	for _, t := range tasks {
		if t.ProjectID != projectID {
			continue
		}
		addNode(t.ID)
		status[t.ID] = t.Status
		labels[t.ID] = t.Name
	}
	for _, wf := range flows {
		if !wf.IsActive || wf.TaskID == "" {
			continue
		}
		addNode(wf.TaskID)
		for _, dep := range wf.DependencyTask {
			if dep == "" || dep == wf.TaskID || slices.Contains(adj[wf.TaskID], dep) {
				continue
			}
			addNode(dep)
			adj[wf.TaskID] = append(adj[wf.TaskID], dep)
		}
	}
	slices.Sort(nodes)

	var missing []string
	for _, id := range nodes {
		if labels[id] == "" {
			missing = append(missing, id)
		}
	}

	ws.mu.Lock()
	state, ok := ws.graphs[projectID]
	if !ok {
		state = &graphState{projectID: projectID, layout: NewLayout(s.width, s.height, s.iterations)}
		ws.graphs[projectID] = state
	}
	// keep labels learned earlier for nodes the task list does not cover
	for id, label := range state.labels {
		if labels[id] == "" {
			labels[id] = label
		}
	}
	state.adj = adj
	state.nodes = nodes
	state.status = status
	state.labels = labels
	state.layout.Run(nodes, state.edges())
	graph := state.render()
	ws.mu.Unlock()

	var unresolved []string
	for _, id := range missing {
		if labels[id] == "" {
			unresolved = append(unresolved, id)
		}
	}
	if len(unresolved) > 0 {
		go s.backfillLabels(ws, projectID, unresolved)
	}
	return graph, nil
}

func (s *WorkflowService) backfillLabels(ws *Workspace, projectID string, ids []string) {
	ctx, cancel := context.WithTimeout(ws.Context(context.Background()), labelFetchTimeout)
	defer cancel()

	names := make([]string, len(ids))
	var g errgroup.Group
	g.SetLimit(labelFetchParallel)
	for i, id := range ids {
		g.Go(func() error {
			task, err := s.api.Tasks.Get(ctx, id)
			if err != nil {
				logger.Debug().Err(err).Str("task", id).Msg("task label lookup failed")
				return nil
			}
			names[i] = task.Name
			return nil
		})
	}
	_ = g.Wait()

	ws.mu.Lock()
	state, ok := ws.graphs[projectID]
	filled := false
	if ok {
		for i, id := range ids {
			if names[i] != "" {
				state.labels[id] = names[i]
				filled = true
			}
		}
	}
	var graph *Graph
	if filled {
		graph = state.render()
	}
	ws.mu.Unlock()

	if graph != nil {
		s.hub.Publish(ws.Session.ID, SessionEvent{Type: EventGraph, Data: graph})
	}
}

// Graph returns the last laid out graph of the project.
func (s *WorkflowService) Graph(ctx context.Context, ws *Workspace, projectID string) (*Graph, error) {
	ws.mu.Lock()
	state, ok := ws.graphs[projectID]
	var graph *Graph
	if ok {
		graph = state.render()
	}
	ws.mu.Unlock()

	if ok {
		return graph, nil
	}
	return s.LoadGraph(ctx, ws, projectID)
}

// DependencyPicks cleans a set of picked dependencies: the task itself,
// blanks and repeats are dropped.
func DependencyPicks(taskID string, picks []string) []string {
	out := make([]string, 0, len(picks))
	for _, id := range picks {
		if id == "" || id == taskID || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// SetDependencies submits the dependencies of taskID. Cycles are detected by
// the backend; its rejection text is shown as is.
func (s *WorkflowService) SetDependencies(ctx context.Context, ws *Workspace, projectID, taskID string, picks []string) (*Graph, error) {
	deps := DependencyPicks(taskID, picks)
	if len(deps) == 0 {
		return nil, response.NewValidation(MsgNoDependencies)
	}

	err := s.api.Workflows.Create(ws.Context(ctx), models.Workflow{
		TaskID:         taskID,
		ProjectID:      projectID,
		DependencyTask: deps,
		IsActive:       true,
	})
	if err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) && backend.BodyOf(err) != "" {
			return nil, response.NewBadRequest(backend.BodyOf(err)).WithModal(response.ModalError)
		}
		return nil, fromBackend(err, MsgWorkflowFailed)
	}
	return s.LoadGraph(ctx, ws, projectID)
}

// Drag moves a node and pins it where it was dropped.
func (s *WorkflowService) Drag(ws *Workspace, projectID, nodeID string, x, y float64) (*Graph, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	state, ok := ws.graphs[projectID]
	if !ok {
		return nil, response.NewNotFound("The workflow graph is not loaded.")
	}
	if _, ok := state.layout.Drag(nodeID, x, y); !ok {
		return nil, response.NewNotFound("Unknown graph node.")
	}
	return state.render(), nil
}

// Candidates lists the project tasks that may be picked as dependencies of taskID.
func (s *WorkflowService) Candidates(ctx context.Context, ws *Workspace, projectID, taskID string) ([]models.Task, error) {
	tasks, err := s.api.Tasks.List(ws.Context(ctx))
	if err != nil {
		return nil, fromBackend(err, "There was an error loading tasks.")
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ProjectID == projectID && t.ID != taskID {
			out = append(out, t)
		}
	}
	return out, nil
}
