package backend

import "time"

// Backend groups the resource adapters over one shared Client.
type Backend struct {
	Auth          *Auth
	Users         *Users
	Projects      *Projects
	Tasks         *Tasks
	Workflows     *Workflows
	Notifications *Notifications
	Analytics     *Analytics
	Events        *Events
}

func New(baseURL string, timeout time.Duration) *Backend {
	c := NewClient(baseURL, timeout)
	return &Backend{
		Auth:          NewAuth(c),
		Users:         NewUsers(c),
		Projects:      NewProjects(c),
		Tasks:         NewTasks(c),
		Workflows:     NewWorkflows(c),
		Notifications: NewNotifications(c),
		Analytics:     NewAnalytics(c),
		Events:        NewEvents(c),
	}
}
