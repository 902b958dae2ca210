package queue

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"

	"github.com/feichai0017/docintel/internal/models"
)

func TestQueueFor(t *testing.T) {
	assert.Equal(t, "critical", QueueFor(1))
	assert.Equal(t, "default", QueueFor(2))
	assert.Equal(t, "low", QueueFor(3))
	assert.Equal(t, "low", QueueFor(0))
}

func TestConvertAsynqStatus(t *testing.T) {
	done := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		info     *asynq.TaskInfo
		status   models.ProcessingStatus
		progress float64
	}{
		{&asynq.TaskInfo{ID: "a", State: asynq.TaskStatePending}, models.StatusPending, 0},
		{&asynq.TaskInfo{ID: "b", State: asynq.TaskStateScheduled}, models.StatusPending, 0},
		{&asynq.TaskInfo{ID: "c", State: asynq.TaskStateActive}, models.StatusRunning, 0.5},
		{&asynq.TaskInfo{ID: "d", State: asynq.TaskStateCompleted, CompletedAt: done}, models.StatusCompleted, 1},
		{&asynq.TaskInfo{ID: "e", State: asynq.TaskStateArchived, LastErr: "boom"}, models.StatusFailed, 0},
	}
	for _, tc := range cases {
		got := convertAsynqStatus(tc.info)
		assert.Equal(t, tc.info.ID, got.TaskID)
		assert.Equal(t, string(tc.status), got.Status, tc.info.ID)
		assert.Equal(t, tc.progress, got.Progress, tc.info.ID)
	}

	assert.Equal(t, done, convertAsynqStatus(cases[3].info).FinishedAt)
	assert.Equal(t, "boom", convertAsynqStatus(cases[4].info).Error)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "task_status:t1", statusKey("t1"))
	assert.Equal(t, "doc_latest:d1", latestKey("d1"))
}

func TestNewLatestRegistryDefaultsTTL(t *testing.T) {
	r := NewLatestRegistry(nil, 0)
	assert.Equal(t, time.Hour, r.ttl)
}
