package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/takio1981/my-todo-fullstack/internal/task"

	"github.com/sirupsen/logrus"
)

var ErrUnknownEvent = errors.New("unknown event type")

func decodeEvent(body []byte) (*task.TaskEvent, error) {
	var event task.TaskEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode task event: %w", err)
	}
	if event.TaskID <= 0 {
		return nil, fmt.Errorf("decode task event: invalid task id %d", event.TaskID)
	}
	return &event, nil
}

func handleEvent(event *task.TaskEvent, workerID int) error {
	switch event.Type {
	case task.EventCreated:
		return auditCreated(event, workerID)
	case task.EventUpdated:
		return auditUpdated(event, workerID)
	case task.EventDeleted:
		return auditDeleted(event, workerID)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event.Type)
	}
}

func auditFields(event *task.TaskEvent, workerID int) logrus.Fields {
	return logrus.Fields{
		"worker":      workerID,
		"task_id":     event.TaskID,
		"occurred_at": event.OccurredAt,
	}
}

func auditCreated(event *task.TaskEvent, workerID int) error {
	logrus.WithFields(auditFields(event, workerID)).
		WithField("title", event.Title).
		Info("Task created")
	return nil
}

func auditUpdated(event *task.TaskEvent, workerID int) error {
	logrus.WithFields(auditFields(event, workerID)).
		WithField("title", event.Title).
		WithField("is_completed", event.IsCompleted).
		Info("Task updated")
	return nil
}

func auditDeleted(event *task.TaskEvent, workerID int) error {
	logrus.WithFields(auditFields(event, workerID)).Info("Task deleted")
	return nil
}
