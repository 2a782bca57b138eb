package task

import (
	"context"
	"database/sql"
	"math"

	"github.com/sirupsen/logrus"
)

// maxTaskID is the largest value the SERIAL id column can hold.
const maxTaskID = math.MaxInt32

type TaskRepository struct{}

type TaskRepositoryInterface interface {
	List(ctx context.Context, db *sql.DB) ([]*Task, error)
	Create(ctx context.Context, db *sql.DB, title string) (*Task, error)
	Update(ctx context.Context, db *sql.DB, id int, title string, isCompleted bool) (int64, error)
	Delete(ctx context.Context, db *sql.DB, id int) (int64, error)
}

func NewTaskRepository() TaskRepositoryInterface {
	return &TaskRepository{}
}

// List returns every task in insertion order.
func (r *TaskRepository) List(
	ctx context.Context,
	db *sql.DB,
) ([]*Task, error) {
	query := `
		SELECT id, title, is_completed
		FROM tasks
		ORDER BY id
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		logrus.WithError(err).Error("Failed to list tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*Task, 0)
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.IsCompleted); err != nil {
			logrus.WithError(err).Error("Error scanning task row")
			return nil, err
		}
		tasks = append(tasks, &t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *TaskRepository) Create(
	ctx context.Context,
	db *sql.DB,
	title string,
) (*Task, error) {
	query := `
		INSERT INTO tasks (title)
		VALUES ($1)
		RETURNING id, title, is_completed
	`

	var t Task
	err := db.QueryRowContext(ctx, query, title).Scan(&t.ID, &t.Title, &t.IsCompleted)
	if err != nil {
		logrus.WithError(err).Error("Failed to create task")
		return nil, err
	}

	return &t, nil
}

// Update replaces both fields. It reports the affected row count and does
// not treat zero as an error.
func (r *TaskRepository) Update(
	ctx context.Context,
	db *sql.DB,
	id int,
	title string,
	isCompleted bool,
) (int64, error) {
	if id > maxTaskID {
		return 0, nil
	}

	query := `
		UPDATE tasks
		SET title = $1,
		    is_completed = $2
		WHERE id = $3
	`

	result, err := db.ExecContext(ctx, query, title, isCompleted, id)
	if err != nil {
		logrus.WithError(err).WithField("task_id", id).Error("Failed to update task")
		return 0, err
	}

	return result.RowsAffected()
}

func (r *TaskRepository) Delete(
	ctx context.Context,
	db *sql.DB,
	id int,
) (int64, error) {
	if id > maxTaskID {
		return 0, nil
	}

	query := `DELETE FROM tasks WHERE id = $1`

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		logrus.WithError(err).WithField("task_id", id).Error("Failed to delete task")
		return 0, err
	}

	return result.RowsAffected()
}
