package models

import (
	"fmt"
	"slices"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "work in progress"
	StatusDone       TaskStatus = "done"
)

// Columns lists the board columns in display order.
var Columns = []TaskStatus{StatusPending, StatusInProgress, StatusDone}

func (s TaskStatus) Valid() bool {
	return slices.Contains(Columns, s)
}

// Rank orders statuses along the pending → in progress → done workflow.
func (s TaskStatus) Rank() int {
	return slices.Index(Columns, s)
}

func ParseTaskStatus(v string) (TaskStatus, error) {
	s := TaskStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("invalid task status %q", v)
	}
	return s, nil
}

// Task mirrors the backend task document.
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Users       []string   `json:"users"`
	ProjectID   string     `json:"project_id"`
	DependsOn   []string   `json:"dependsOn,omitempty"`
}

func (t *Task) HasMember(userID string) bool {
	return slices.Contains(t.Users, userID)
}

// NewTaskRequest is the body of POST /tasks.
type NewTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProjectID   string `json:"project_id"`
}

// StatusUpdate is the body of PUT /tasks/:id.
type StatusUpdate struct {
	Status TaskStatus `json:"status"`
}

// MembershipCheck is returned by GET /tasks/:id/member-of/:userId.
type MembershipCheck struct {
	IsMember bool `json:"isMember"`
}

// TaskFile is an attachment already stored for a task.
type TaskFile struct {
	FileName string `json:"fileName"`
}
