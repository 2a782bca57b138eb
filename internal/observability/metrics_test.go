package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.TaskOperation("create", nil)
		m.LoginAttempt("success")
		m.Registration("success")
		m.CacheLookup("task_list", true)
		m.MessagePublished("task_events")
		m.MessageConsumed("task_events")
	})
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.TaskOperation("create", nil)
	m.TaskOperation("create", nil)
	m.TaskOperation("delete", errors.New("store down"))
	m.LoginAttempt("wrong_password")
	m.CacheLookup("task_list", true)
	m.CacheLookup("task_list", false)
	m.CacheLookup("task_list", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TaskOperationsTotal.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskOperationsTotal.WithLabelValues("delete", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("wrong_password")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("task_list")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("task_list")))
}
