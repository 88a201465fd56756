package models

// Workflow is a task-to-dependencies adjacency record: TaskID cannot advance
// until every id in DependencyTask is far enough along. The backend keeps the
// graph acyclic.
type Workflow struct {
	ID             string   `json:"id,omitempty"`
	TaskID         string   `json:"task_id"`
	ProjectID      string   `json:"project_id"`
	DependencyTask []string `json:"dependency_task"`
	IsActive       bool     `json:"is_active"`
}
