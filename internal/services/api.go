package services

import (
	"context"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services/backend"
)

// The interfaces below are the slices of the remote API each view needs.
// backend.Backend satisfies all of them; tests use in-memory fakes.

type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error)
	Register(ctx context.Context, user models.User) error
	ResetPassword(ctx context.Context, email string) error
	SendMagicLink(ctx context.Context, req models.MagicLinkRequest) error
	VerifyMagicLink(ctx context.Context, token string) (*models.LoginResponse, error)
}

type UserAPI interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	IsActive(ctx context.Context, email string) (bool, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Active(ctx context.Context) ([]models.User, error)
	ChangePassword(ctx context.Context, id string, req models.ChangePasswordRequest) error
	Deactivate(ctx context.Context, id string) error
}

type ProjectAPI interface {
	List(ctx context.Context) ([]models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, project models.Project) (*models.Project, error)
	CheckTitle(ctx context.Context, managerID, title string) (string, error)
	AddUsers(ctx context.Context, id string, userIDs []string) error
	RemoveUsers(ctx context.Context, id string, userIDs []string) error
	Users(ctx context.Context, id string) ([]models.User, error)
	IsActive(ctx context.Context, id string) (bool, error)
}

type TaskAPI interface {
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, req models.NewTaskRequest) (*models.Task, error)
	UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error
	AddUser(ctx context.Context, id, userID string) error
	RemoveUser(ctx context.Context, id, userID string) error
	Users(ctx context.Context, id string) ([]models.User, error)
	IsMember(ctx context.Context, id, userID string) (bool, error)
	Upload(ctx context.Context, id string, files []backend.FilePart) error
	Files(ctx context.Context, id string) ([]string, error)
	Download(ctx context.Context, id, fileName string) (*backend.Download, error)
}

type WorkflowAPI interface {
	Create(ctx context.Context, wf models.Workflow) error
	ByProject(ctx context.Context, projectID string) ([]models.Workflow, error)
}

type NotificationAPI interface {
	ForUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type AnalyticsAPI interface {
	TaskCount(ctx context.Context, userID string) (*models.TaskCount, error)
	StatusCount(ctx context.Context, userID string) (*models.StatusCount, error)
	TaskProjects(ctx context.Context, userID string) (*models.UserTaskProjects, error)
	CompletionOnTime(ctx context.Context, userID string) ([]models.ProjectCompletion, error)
}

type EventAPI interface {
	List(ctx context.Context) ([]models.Event, error)
}

// API bundles the remote adapters handed to the view services.
type API struct {
	Auth          AuthAPI
	Users         UserAPI
	Projects      ProjectAPI
	Tasks         TaskAPI
	Workflows     WorkflowAPI
	Notifications NotificationAPI
	Analytics     AnalyticsAPI
	Events        EventAPI
}

func NewAPI(b *backend.Backend) API {
	return API{
		Auth:          b.Auth,
		Users:         b.Users,
		Projects:      b.Projects,
		Tasks:         b.Tasks,
		Workflows:     b.Workflows,
		Notifications: b.Notifications,
		Analytics:     b.Analytics,
		Events:        b.Events,
	}
}
