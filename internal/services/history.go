package services

import (
	"context"
	"sort"
	"time"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/pkg/logger"
	"github.com/taskio/taskio-web/pkg/response"
	"golang.org/x/sync/errgroup"
)

// HistoryTimeLayout is how event times are shown.
const HistoryTimeLayout = "02.01.2006 15:04"

const nameLookupParallel = 4

type HistoryEntry struct {
	Type           string    `json:"type"`
	Time           time.Time `json:"time"`
	When           string    `json:"when"`
	ProjectID      string    `json:"project_id"`
	ProjectTitle   string    `json:"project_title,omitempty"`
	TaskID         string    `json:"task_id,omitempty"`
	TaskName       string    `json:"task_name,omitempty"`
	ManagerID      string    `json:"manager_id,omitempty"`
	ManagerName    string    `json:"manager_name,omitempty"`
	MemberID       string    `json:"member_id,omitempty"`
	MemberName     string    `json:"member_name,omitempty"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	CurrentStatus  string    `json:"current_status,omitempty"`
	FilePath       string    `json:"file_path,omitempty"`
}

type ProjectOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type HistoryView struct {
	Projects []ProjectOption `json:"projects"`
	Selected string          `json:"selected,omitempty"`
	Entries  []HistoryEntry  `json:"entries"`
}

// nameCache remembers ids already resolved for the history view.
type nameCache struct {
	users    map[string]string
	projects map[string]string
	tasks    map[string]string
}

func newNameCache() *nameCache {
	return &nameCache{
		users:    make(map[string]string),
		projects: make(map[string]string),
		tasks:    make(map[string]string),
	}
}

type HistoryService struct {
	api API
	loc *time.Location
}

func NewHistoryService(api API, loc *time.Location) *HistoryService {
	if loc == nil {
		loc = time.Local
	}
	return &HistoryService{api: api, loc: loc}
}

// Load returns the events of the manager's projects, newest first, with ids
// resolved to names. projectID narrows the list to one project.
func (s *HistoryService) Load(ctx context.Context, ws *Workspace, projectID string) (*HistoryView, error) {
	if !ws.Session.IsManager() {
		return nil, response.NewForbidden("Only managers can view the project history.")
	}

	var (
		events   []models.Event
		projects []models.Project
	)
	bctx := ws.Context(ctx)
	g, gctx := errgroup.WithContext(bctx)
	g.Go(func() (err error) {
		events, err = s.api.Events.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		projects, err = s.api.Projects.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fromBackend(err, "There was an error loading the history.")
	}

	view := &HistoryView{Projects: []ProjectOption{}, Selected: projectID, Entries: []HistoryEntry{}}
	mine := make(map[string]bool)
	for _, p := range projects {
		if p.ManagerID != ws.Session.UserID {
			continue
		}
		mine[p.ID] = true
		view.Projects = append(view.Projects, ProjectOption{ID: p.ID, Title: p.Title})
	}

	var kept []models.Event
	for _, ev := range events {
		pid := eventProject(ev)
		if !mine[pid] {
			continue
		}
		if projectID != "" && pid != projectID {
			continue
		}
		kept = append(kept, ev)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Time.After(kept[j].Time)
	})

	ws.mu.Lock()
	for _, p := range projects {
		if mine[p.ID] {
			ws.names.projects[p.ID] = p.Title
		}
	}
	cache := ws.names
	ws.mu.Unlock()

	s.resolveNames(bctx, ws, cache, kept)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, ev := range kept {
		view.Entries = append(view.Entries, HistoryEntry{
			Type:           ev.Type,
			Time:           ev.Time,
			When:           ev.Time.In(s.loc).Format(HistoryTimeLayout),
			ProjectID:      eventProject(ev),
			ProjectTitle:   cache.projects[eventProject(ev)],
			TaskID:         ev.Event.TaskID,
			TaskName:       cache.tasks[ev.Event.TaskID],
			ManagerID:      ev.Event.ManagerID,
			ManagerName:    cache.users[ev.Event.ManagerID],
			MemberID:       ev.Event.MemberID,
			MemberName:     cache.users[ev.Event.MemberID],
			Status:         ev.Event.Status,
			PreviousStatus: ev.Event.PreviousStatus,
			CurrentStatus:  ev.Event.CurrentStatus,
			FilePath:       ev.Event.FilePath,
		})
	}
	return view, nil
}

func eventProject(ev models.Event) string {
	if ev.ProjectID != "" {
		return ev.ProjectID
	}
	return ev.Event.ProjectID
}

type nameLookup struct {
	kind string
	id   string
	name string
}

// resolveNames fetches usernames, project titles and task names not yet in
// the cache. Failed lookups are logged and left blank.
func (s *HistoryService) resolveNames(ctx context.Context, ws *Workspace, cache *nameCache, events []models.Event) {
	ws.mu.Lock()
	var lookups []*nameLookup
	queued := make(map[string]bool)
	queue := func(kind, id string, known map[string]string) {
		if id == "" || known[id] != "" || queued[kind+id] {
			return
		}
		queued[kind+id] = true
		lookups = append(lookups, &nameLookup{kind: kind, id: id})
	}
	for _, ev := range events {
		queue("user", ev.Event.ManagerID, cache.users)
		queue("user", ev.Event.MemberID, cache.users)
		queue("project", eventProject(ev), cache.projects)
		queue("task", ev.Event.TaskID, cache.tasks)
	}
	ws.mu.Unlock()

	if len(lookups) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(nameLookupParallel)
	for _, l := range lookups {
		g.Go(func() error {
			var err error
			switch l.kind {
			case "user":
				var u *models.User
				if u, err = s.api.Users.Get(ctx, l.id); err == nil {
					l.name = u.Username
				}
			case "project":
				var p *models.Project
				if p, err = s.api.Projects.Get(ctx, l.id); err == nil {
					l.name = p.Title
				}
			case "task":
				var t *models.Task
				if t, err = s.api.Tasks.Get(ctx, l.id); err == nil {
					l.name = t.Name
				}
			}
			if err != nil {
				logger.Debug().Err(err).Str("kind", l.kind).Str("id", l.id).Msg("history name lookup failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, l := range lookups {
		if l.name == "" {
			continue
		}
		switch l.kind {
		case "user":
			cache.users[l.id] = l.name
		case "project":
			cache.projects[l.id] = l.name
		case "task":
			cache.tasks[l.id] = l.name
		}
	}
}
