package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/takio1981/my-todo-fullstack/internal/cache"
	"github.com/takio1981/my-todo-fullstack/internal/observability"
	"github.com/takio1981/my-todo-fullstack/internal/queue"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	sideEffectTimeout = 2 * time.Second
	listFillTimeout   = 10 * time.Second
)

type TaskServiceInterface interface {
	List(ctx context.Context) ([]*Task, error)
	Create(ctx context.Context, title string) (*Task, error)
	Update(ctx context.Context, id int, title string, isCompleted bool) error
	Delete(ctx context.Context, id int) error
}

// EventPublisher delivers task events. queue.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

type TaskService struct {
	repo   TaskRepositoryInterface
	DB     *sql.DB
	cache  *cache.TaskCache
	events EventPublisher
	sf     singleflight.Group
}

// NewTaskService wires the repository to its optional collaborators.
// A nil cache disables list caching; a nil publisher disables task events.
func NewTaskService(repo TaskRepositoryInterface, db *sql.DB, taskCache *cache.TaskCache, events EventPublisher) TaskServiceInterface {
	return &TaskService{
		repo:   repo,
		DB:     db,
		cache:  taskCache,
		events: events,
	}
}

// List serves the shared list from cache, filling it through one store read
// per key. Each caller stops waiting when its own ctx ends; the fill itself
// survives a departed caller.
func (s *TaskService) List(ctx context.Context) ([]*Task, error) {
	if s.cache == nil {
		return s.repo.List(ctx, s.DB)
	}

	ch := s.sf.DoChan(cache.TaskListKey, func() (interface{}, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listFillTimeout)
		defer cancel()
		return s.fillList(fillCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*Task), nil
	}
}

func (s *TaskService) fillList(ctx context.Context) ([]*Task, error) {
	cachedData, err := s.cache.Get(ctx, cache.TaskListKey)
	if err != nil {
		logrus.WithError(err).Warn("Failed to read task list from cache")
	} else if cachedData != nil {
		var tasks []*Task
		if json.Unmarshal(cachedData, &tasks) == nil {
			observability.GlobalMetrics.CacheLookup("task_list", true)
			logrus.Debug("cache hit for task list")
			return tasks, nil
		}
	}
	observability.GlobalMetrics.CacheLookup("task_list", false)
	logrus.Debug("cache miss for task list")

	// Read the generation before the store so a write landing mid-read is seen.
	gen, genErr := s.cache.Generation(ctx)

	tasks, err := s.repo.List(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		logrus.WithError(genErr).Warn("Failed to read task list generation, not caching")
		return tasks, nil
	}
	s.storeList(ctx, gen, tasks)
	return tasks, nil
}

// storeList caches tasks read at generation gen. A write that lands between
// the check and the store is caught by the second check and the entry dropped.
func (s *TaskService) storeList(ctx context.Context, gen int64, tasks []*Task) {
	if !s.generationIs(ctx, gen) {
		logrus.Debug("task list changed during read, not caching")
		return
	}

	// A failed cache write only costs a future miss.
	if err := s.cache.Set(ctx, cache.TaskListKey, tasks); err != nil {
		logrus.WithError(err).Warn("Failed to set cache for task list")
		return
	}

	if !s.generationIs(ctx, gen) {
		if err := s.cache.Invalidate(ctx, cache.TaskListKey); err != nil {
			logrus.WithError(err).Warn("Failed to drop stale task list from cache")
		}
	}
}

func (s *TaskService) generationIs(ctx context.Context, gen int64) bool {
	current, err := s.cache.Generation(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Failed to read task list generation")
		return false
	}
	return current == gen
}

func (s *TaskService) Create(ctx context.Context, title string) (*Task, error) {
	task, err := s.repo.Create(ctx, s.DB, title)
	observability.GlobalMetrics.TaskOperation("create", err)
	if err != nil {
		return nil, err
	}

	logrus.WithField("task_id", task.ID).Info("Task created")
	s.afterWrite(ctx, TaskEvent{Type: EventCreated, TaskID: task.ID, Title: task.Title, IsCompleted: task.IsCompleted})
	return task, nil
}

// Update does not check that id exists; an unknown id succeeds without changes.
func (s *TaskService) Update(ctx context.Context, id int, title string, isCompleted bool) error {
	affected, err := s.repo.Update(ctx, s.DB, id, title, isCompleted)
	observability.GlobalMetrics.TaskOperation("update", err)
	if err != nil {
		return err
	}

	if affected == 0 {
		logrus.WithField("task_id", id).Info("Update matched no task")
		return nil
	}
	s.afterWrite(ctx, TaskEvent{Type: EventUpdated, TaskID: id, Title: title, IsCompleted: isCompleted})
	return nil
}

// Delete is a silent no-op for an unknown id.
func (s *TaskService) Delete(ctx context.Context, id int) error {
	affected, err := s.repo.Delete(ctx, s.DB, id)
	observability.GlobalMetrics.TaskOperation("delete", err)
	if err != nil {
		return err
	}

	if affected == 0 {
		logrus.WithField("task_id", id).Info("Delete matched no task")
		return nil
	}
	s.afterWrite(ctx, TaskEvent{Type: EventDeleted, TaskID: id})
	return nil
}

// afterWrite drops the cached list and announces the change. Neither step can fail the write.
func (s *TaskService) afterWrite(ctx context.Context, event TaskEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if s.cache != nil {
		if err := s.cache.InvalidateList(ctx); err != nil {
			logrus.WithError(err).Warn("Failed to invalidate task list cache")
		}
		// Later lists must not join a fill that started before this write.
		s.sf.Forget(cache.TaskListKey)
	}

	if s.events == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	body, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode task event")
		return
	}
	if err := s.events.Publish(ctx, queue.TaskEventsQueue, body); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":   event.Type,
			"task_id": event.TaskID,
		}).Warn("Failed to publish task event")
	}
}
