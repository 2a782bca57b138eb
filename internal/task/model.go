package task

import "time"

type Task struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

type EventType string

const (
	EventCreated EventType = "task.created"
	EventUpdated EventType = "task.updated"
	EventDeleted EventType = "task.deleted"
)

// TaskEvent is published after every successful write.
type TaskEvent struct {
	Type        EventType `json:"type"`
	TaskID      int       `json:"task_id"`
	Title       string    `json:"title,omitempty"`
	IsCompleted bool      `json:"is_completed"`
	OccurredAt  time.Time `json:"occurred_at"`
}
