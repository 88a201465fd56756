package models

import "time"

// EventPayload carries whichever ids the event type uses.
type EventPayload struct {
	ManagerID      string `json:"managerId,omitempty"`
	ProjectID      string `json:"projectId"`
	TaskID         string `json:"taskId,omitempty"`
	MemberID       string `json:"memberId,omitempty"`
	Status         string `json:"status,omitempty"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	CurrentStatus  string `json:"currentStatus,omitempty"`
	FilePath       string `json:"filePath,omitempty"`
}

// Event is one entry of the project history stream (GET /events).
type Event struct {
	Type      string       `json:"type"`
	Time      time.Time    `json:"time"`
	Event     EventPayload `json:"event"`
	ProjectID string       `json:"projectId"`
}
