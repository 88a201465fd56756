package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type NotificationStatus string

const (
	Unread NotificationStatus = "unread"
	Read   NotificationStatus = "read"
)

func (ns *NotificationStatus) UnmarshalJSON(data []byte) error {
	var status string
	if err := json.Unmarshal(data, &status); err != nil {
		return err
	}

	switch status {
	case "unread", "read":
		*ns = NotificationStatus(status)
		return nil
	}

	return fmt.Errorf("invalid notification status: %s", status)
}

type Notification struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Message   string             `json:"message"`
	CreatedAt time.Time          `json:"created_at"`
	IsActive  bool               `json:"is_active"`
	Status    NotificationStatus `json:"status"`
}

func (n *Notification) Unread() bool {
	return n.Status == Unread
}

// AnyUnread decides the navbar badge.
func AnyUnread(ns []Notification) bool {
	for i := range ns {
		if ns[i].Unread() {
			return true
		}
	}
	return false
}
