package models

// TaskCount is returned by GET /analytics/countusers/:id.
type TaskCount struct {
	TaskCount int `json:"task_count"`
}

// StatusCount is returned by GET /analytics/countusersbystatus/:id.
type StatusCount struct {
	Done       int `json:"done"`
	Pending    int `json:"pending"`
	InProgress int `json:"work in progress"`
}

type ProjectTasks struct {
	ProjectID    string `json:"project_id"`
	ProjectTitle string `json:"project_title"`
	Tasks        []Task `json:"tasks"`
}

// UserTaskProjects is returned by GET /analytics/usertaskproject/:id.
type UserTaskProjects struct {
	Projects []ProjectTasks `json:"projects"`
}

// ProjectCompletion is one row of GET /analytics/project-completion-ontime/:id.
type ProjectCompletion struct {
	ProjectID       string `json:"project_id"`
	Title           string `json:"title"`
	ExpectedEndDate string `json:"expected_end_date"`
	CompletedOnTime bool   `json:"completed_on_time"`
	Status          string `json:"status"`
}
