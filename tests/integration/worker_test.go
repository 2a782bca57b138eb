//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/takio1981/my-todo-fullstack/internal/queue"
	"github.com/takio1981/my-todo-fullstack/internal/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerIntegration_TaskEventsPublished(t *testing.T) {
	env := SetupTestEnv(t)
	defer env.Cleanup(t)

	w := env.do("POST", "/api/tasks", []byte(`{"title":"Buy milk"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var created task.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do("DELETE", fmt.Sprintf("/api/tasks/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	ch, err := queue.CreateChannel(env.RabbitConn)
	require.NoError(t, err)
	defer ch.Close()

	var events []task.TaskEvent
	deadline := time.Now().Add(5 * time.Second)
	for len(events) < 2 && time.Now().Before(deadline) {
		msg, ok, err := ch.Get(queue.TaskEventsQueue, true)
		require.NoError(t, err)
		if !ok {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		var event task.TaskEvent
		require.NoError(t, json.Unmarshal(msg.Body, &event))
		events = append(events, event)
	}

	require.Len(t, events, 2)
	assert.Equal(t, task.EventCreated, events[0].Type)
	assert.Equal(t, created.ID, events[0].TaskID)
	assert.Equal(t, task.EventDeleted, events[1].Type)
}

func TestWorkerIntegration_NoEventForUnknownID(t *testing.T) {
	env := SetupTestEnv(t)
	defer env.Cleanup(t)

	w := env.do("DELETE", "/api/tasks/424242", nil)
	require.Equal(t, http.StatusOK, w.Code)

	ch, err := queue.CreateChannel(env.RabbitConn)
	require.NoError(t, err)
	defer ch.Close()

	_, ok, err := ch.Get(queue.TaskEventsQueue, true)
	require.NoError(t, err)
	assert.False(t, ok)
}
