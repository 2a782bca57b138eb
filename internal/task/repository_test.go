package task

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, is_completed")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "is_completed"}).
			AddRow(1, "Buy milk", false).
			AddRow(2, "Walk dog", true))

	tasks, err := NewTaskRepository().List(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, &Task{ID: 1, Title: "Buy milk", IsCompleted: false}, tasks[0])
	assert.Equal(t, &Task{ID: 2, Title: "Walk dog", IsCompleted: true}, tasks[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_List_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, is_completed")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "is_completed"}))

	tasks, err := NewTaskRepository().List(context.Background(), db)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestTaskRepository_List_StoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storeErr := errors.New("relation \"tasks\" does not exist")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, is_completed")).WillReturnError(storeErr)

	tasks, err := NewTaskRepository().List(context.Background(), db)
	assert.Nil(t, tasks)
	assert.ErrorIs(t, err, storeErr)
}

func TestTaskRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks (title)")).
		WithArgs("Buy milk").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "is_completed"}).AddRow(5, "Buy milk", false))

	task, err := NewTaskRepository().Create(context.Background(), db, "Buy milk")
	require.NoError(t, err)

	assert.Equal(t, 5, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.False(t, task.IsCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Create_KeepsTitleVerbatim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks (title)")).
		WithArgs("  spaced  ").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "is_completed"}).AddRow(1, "  spaced  ", false))

	task, err := NewTaskRepository().Create(context.Background(), db, "  spaced  ")
	require.NoError(t, err)
	assert.Equal(t, "  spaced  ", task.Title)
}

func TestTaskRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).
		WithArgs("Buy milk", true, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := NewTaskRepository().Update(context.Background(), db, 5, "Buy milk", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update_UnknownID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).
		WithArgs("Ghost", false, 999).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := NewTaskRepository().Update(context.Background(), db, 999, "Ghost", false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestTaskRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewTaskRepository()

	affected, err := repo.Delete(context.Background(), db, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.Delete(context.Background(), db, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete_StoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storeErr := errors.New("connection reset by peer")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks")).WillReturnError(storeErr)

	_, err = NewTaskRepository().Delete(context.Background(), db, 1)
	assert.ErrorIs(t, err, storeErr)
}

func TestTaskRepository_IDBeyondColumnRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository()

	affected, err := repo.Update(context.Background(), db, 9999999999, "Ghost", true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = repo.Delete(context.Background(), db, 9999999999)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	// No statement reaches the store.
	assert.NoError(t, mock.ExpectationsWereMet())
}
