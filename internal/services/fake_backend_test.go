package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services/backend"
	"github.com/taskio/taskio-web/internal/utils"
)

// callLog records which fake endpoints a test reached.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (l *callLog) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func apiErr(status int, body string) error {
	return &backend.APIError{Method: "GET", Path: "/fake", Status: status, Body: body}
}

type fakeAuth struct {
	log         *callLog
	loginReply  *models.LoginResponse
	loginErr    error
	registerErr error
	resetErr    error
	magicErr    error
	registered  []models.User
}

func (f *fakeAuth) Login(_ context.Context, _ models.Credentials) (*models.LoginResponse, error) {
	f.log.add("Auth.Login")
	return f.loginReply, f.loginErr
}

func (f *fakeAuth) Register(_ context.Context, user models.User) error {
	f.log.add("Auth.Register")
	if f.registerErr == nil {
		f.registered = append(f.registered, user)
	}
	return f.registerErr
}

func (f *fakeAuth) ResetPassword(_ context.Context, _ string) error {
	f.log.add("Auth.ResetPassword")
	return f.resetErr
}

func (f *fakeAuth) SendMagicLink(_ context.Context, _ models.MagicLinkRequest) error {
	f.log.add("Auth.SendMagicLink")
	return f.magicErr
}

func (f *fakeAuth) VerifyMagicLink(_ context.Context, _ string) (*models.LoginResponse, error) {
	f.log.add("Auth.VerifyMagicLink")
	return f.loginReply, f.loginErr
}

type fakeUsers struct {
	log            *callLog
	users          map[string]models.User
	takenEmails    map[string]bool
	takenUsernames map[string]bool
	activeEmails   map[string]bool
	getErr         error
	changeErr      error
	deactivated    []string
}

func (f *fakeUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	f.log.add("Users.UsernameExists")
	return f.takenUsernames[username], nil
}

func (f *fakeUsers) EmailExists(_ context.Context, email string) (bool, error) {
	f.log.add("Users.EmailExists")
	return f.takenEmails[email], nil
}

func (f *fakeUsers) IsActive(_ context.Context, email string) (bool, error) {
	f.log.add("Users.IsActive")
	return f.activeEmails[email], nil
}

func (f *fakeUsers) Get(_ context.Context, id string) (*models.User, error) {
	f.log.add("Users.Get")
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apiErr(404, "user not found")
	}
	return &u, nil
}

func (f *fakeUsers) Active(_ context.Context) ([]models.User, error) {
	f.log.add("Users.Active")
	var out []models.User
	for _, u := range f.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) ChangePassword(_ context.Context, _ string, _ models.ChangePasswordRequest) error {
	f.log.add("Users.ChangePassword")
	return f.changeErr
}

func (f *fakeUsers) Deactivate(_ context.Context, id string) error {
	f.log.add("Users.Deactivate")
	f.deactivated = append(f.deactivated, id)
	return nil
}

type fakeProjects struct {
	log        *callLog
	mu         sync.Mutex
	projects   map[string]*models.Project
	members    map[string][]models.User
	inactive   map[string]bool
	titleReply string
	titleErr   error
	createErr  error
}

func (f *fakeProjects) List(_ context.Context) ([]models.Project, error) {
	f.log.add("Projects.List")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Project
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProjects) Get(_ context.Context, id string) (*models.Project, error) {
	f.log.add("Projects.Get")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, apiErr(404, "project not found")
	}
	cp := *p
	cp.Users = append([]string(nil), p.Users...)
	return &cp, nil
}

func (f *fakeProjects) Create(_ context.Context, project models.Project) (*models.Project, error) {
	f.log.add("Projects.Create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	project.ID = "new-project"
	if f.projects == nil {
		f.projects = make(map[string]*models.Project)
	}
	f.projects[project.ID] = &project
	return &project, nil
}

func (f *fakeProjects) CheckTitle(_ context.Context, _, _ string) (string, error) {
	f.log.add("Projects.CheckTitle")
	if f.titleErr != nil {
		return "", f.titleErr
	}
	if f.titleReply == "" {
		return models.TitleNotFound, nil
	}
	return f.titleReply, nil
}

func (f *fakeProjects) AddUsers(_ context.Context, id string, userIDs []string) error {
	f.log.add("Projects.AddUsers")
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.projects[id]
	p.Users = append(p.Users, userIDs...)
	return nil
}

func (f *fakeProjects) RemoveUsers(_ context.Context, id string, userIDs []string) error {
	f.log.add("Projects.RemoveUsers")
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.projects[id]
	kept := p.Users[:0]
	for _, u := range p.Users {
		drop := false
		for _, r := range userIDs {
			if u == r {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, u)
		}
	}
	p.Users = kept
	return nil
}

func (f *fakeProjects) Users(_ context.Context, id string) ([]models.User, error) {
	f.log.add("Projects.Users")
	return f.members[id], nil
}

func (f *fakeProjects) IsActive(_ context.Context, id string) (bool, error) {
	f.log.add("Projects.IsActive")
	return !f.inactive[id], nil
}

type fakeTasks struct {
	log       *callLog
	mu        sync.Mutex
	tasks     []models.Task
	members   map[string]bool // "task/user"
	memberErr error
	updateErr error
	createErr error
	getErr    error
	uploadErr error
	uploaded  []string
	files     map[string][]string
}

func (f *fakeTasks) List(_ context.Context) ([]models.Task, error) {
	f.log.add("Tasks.List")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Task(nil), f.tasks...), nil
}

func (f *fakeTasks) Get(_ context.Context, id string) (*models.Task, error) {
	f.log.add("Tasks.Get")
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, apiErr(404, "task not found")
}

func (f *fakeTasks) Create(_ context.Context, req models.NewTaskRequest) (*models.Task, error) {
	f.log.add("Tasks.Create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := models.Task{ID: "t-" + req.Name, Name: req.Name, Description: req.Description, ProjectID: req.ProjectID, Status: models.StatusPending}
	f.tasks = append(f.tasks, t)
	return &t, nil
}

func (f *fakeTasks) UpdateStatus(_ context.Context, id string, status models.TaskStatus) error {
	f.log.add("Tasks.UpdateStatus")
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Status = status
		}
	}
	return nil
}

func (f *fakeTasks) AddUser(_ context.Context, id, userID string) error {
	f.log.add("Tasks.AddUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members == nil {
		f.members = make(map[string]bool)
	}
	f.members[id+"/"+userID] = true
	return nil
}

func (f *fakeTasks) RemoveUser(_ context.Context, id, userID string) error {
	f.log.add("Tasks.RemoveUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, id+"/"+userID)
	return nil
}

func (f *fakeTasks) Users(_ context.Context, _ string) ([]models.User, error) {
	f.log.add("Tasks.Users")
	return nil, nil
}

func (f *fakeTasks) IsMember(_ context.Context, id, userID string) (bool, error) {
	f.log.add("Tasks.IsMember")
	if f.memberErr != nil {
		return false, f.memberErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[id+"/"+userID], nil
}

func (f *fakeTasks) Upload(_ context.Context, _ string, files []backend.FilePart) error {
	f.log.add("Tasks.Upload")
	if f.uploadErr != nil {
		return f.uploadErr
	}
	for _, p := range files {
		f.uploaded = append(f.uploaded, p.Name)
	}
	return nil
}

func (f *fakeTasks) Files(_ context.Context, id string) ([]string, error) {
	f.log.add("Tasks.Files")
	return f.files[id], nil
}

func (f *fakeTasks) Download(_ context.Context, _, fileName string) (*backend.Download, error) {
	f.log.add("Tasks.Download")
	return &backend.Download{Body: io.NopCloser(strings.NewReader(fileName)), ContentType: "text/plain"}, nil
}

type fakeWorkflows struct {
	log       *callLog
	mu        sync.Mutex
	flows     []models.Workflow
	createErr error
}

func (f *fakeWorkflows) Create(_ context.Context, wf models.Workflow) error {
	f.log.add("Workflows.Create")
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flows = append(f.flows, wf)
	return nil
}

func (f *fakeWorkflows) ByProject(_ context.Context, projectID string) ([]models.Workflow, error) {
	f.log.add("Workflows.ByProject")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Workflow
	for _, wf := range f.flows {
		if wf.ProjectID == projectID {
			out = append(out, wf)
		}
	}
	return out, nil
}

type fakeNotifications struct {
	log     *callLog
	mu      sync.Mutex
	items   []models.Notification
	markErr map[string]error
	marked  []string
}

func (f *fakeNotifications) ForUser(_ context.Context, userID string) ([]models.Notification, error) {
	f.log.add("Notifications.ForUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id string) error {
	f.log.add("Notifications.MarkRead")
	if err := f.markErr[id]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Status = models.Read
		}
	}
	return nil
}

func (f *fakeNotifications) setUnread(unread bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if unread {
			f.items[i].Status = models.Unread
		} else {
			f.items[i].Status = models.Read
		}
	}
}

type fakeAnalytics struct {
	log         *callLog
	countErr    error
	taskCount   *models.TaskCount
	statusCount *models.StatusCount
}

func (f *fakeAnalytics) TaskCount(_ context.Context, _ string) (*models.TaskCount, error) {
	f.log.add("Analytics.TaskCount")
	return f.taskCount, f.countErr
}

func (f *fakeAnalytics) StatusCount(_ context.Context, _ string) (*models.StatusCount, error) {
	f.log.add("Analytics.StatusCount")
	return f.statusCount, nil
}

func (f *fakeAnalytics) TaskProjects(_ context.Context, _ string) (*models.UserTaskProjects, error) {
	f.log.add("Analytics.TaskProjects")
	return &models.UserTaskProjects{Projects: []models.ProjectTasks{{ProjectID: "p1", ProjectTitle: "Sprint 1"}}}, nil
}

func (f *fakeAnalytics) CompletionOnTime(_ context.Context, _ string) ([]models.ProjectCompletion, error) {
	f.log.add("Analytics.CompletionOnTime")
	return nil, apiErr(500, "report unavailable")
}

type fakeEvents struct {
	log    *callLog
	events []models.Event
}

func (f *fakeEvents) List(_ context.Context) ([]models.Event, error) {
	f.log.add("Events.List")
	return f.events, nil
}

// fakeBackend bundles one fake per remote resource.
type fakeBackend struct {
	log           *callLog
	auth          *fakeAuth
	users         *fakeUsers
	projects      *fakeProjects
	tasks         *fakeTasks
	workflows     *fakeWorkflows
	notifications *fakeNotifications
	analytics     *fakeAnalytics
	events        *fakeEvents
}

func newFakeBackend() *fakeBackend {
	log := &callLog{}
	return &fakeBackend{
		log:           log,
		auth:          &fakeAuth{log: log},
		users:         &fakeUsers{log: log, users: map[string]models.User{}},
		projects:      &fakeProjects{log: log, projects: map[string]*models.Project{}, members: map[string][]models.User{}, inactive: map[string]bool{}},
		tasks:         &fakeTasks{log: log, members: map[string]bool{}, files: map[string][]string{}},
		workflows:     &fakeWorkflows{log: log},
		notifications: &fakeNotifications{log: log, markErr: map[string]error{}},
		analytics:     &fakeAnalytics{log: log},
		events:        &fakeEvents{log: log},
	}
}

func (f *fakeBackend) api() API {
	return API{
		Auth:          f.auth,
		Users:         f.users,
		Projects:      f.projects,
		Tasks:         f.tasks,
		Workflows:     f.workflows,
		Notifications: f.notifications,
		Analytics:     f.analytics,
		Events:        f.events,
	}
}

func testSealer(t *testing.T) *utils.Sealer {
	t.Helper()
	sealer, err := utils.NewSealer("test-secret")
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}
	return sealer
}

// testWorkspace builds a workspace without timers for view-service tests.
func testWorkspace(t *testing.T, api API, role models.Role, userID string) *Workspace {
	t.Helper()
	sess := &models.Session{ID: "sess-" + userID, Token: "token", Role: role, UserID: userID, CreatedAt: time.Now()}
	opts := ShellOptions{IdleBudget: time.Hour, TickInterval: time.Hour, PollInterval: time.Hour}
	shell := newShell(sess, opts, NewMemorySessionStore(testSealer(t)), api.Notifications, NewEventHub(), nil)
	t.Cleanup(shell.Close)
	return newWorkspace(sess, shell)
}

func mustSealer(t *testing.T, secret string) *utils.Sealer {
	t.Helper()
	sealer, err := utils.NewSealer(secret)
	if err != nil {
		t.Fatal(err)
	}
	return sealer
}
