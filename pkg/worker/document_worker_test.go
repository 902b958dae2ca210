package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/docintel/internal/agent/classify"
	"github.com/feichai0017/docintel/pkg/logger"
	"github.com/feichai0017/docintel/pkg/queue"
)

type fakeHandler struct {
	err  error
	got  *queue.Task
	hits int
}

func (f *fakeHandler) HandleDocument(_ context.Context, task *queue.Task) error {
	f.hits++
	f.got = task
	return f.err
}

func newTestWorker(h TaskHandler) *DocumentWorker {
	return &DocumentWorker{
		BaseWorker: BaseWorker{logger: logger.NewNop(), stopped: make(chan struct{})},
		handler:    h,
	}
}

func analyzeTask(t *testing.T, task queue.Task) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(task)
	require.NoError(t, err)
	return asynq.NewTask(queue.TaskTypeDocumentAnalyze, payload)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(errors.New("redis down")))
	assert.True(t, Retryable(&classify.StageError{Stage: classify.StateTextExtracted, Err: errors.New("throttled")}))
	assert.False(t, Retryable(fmt.Errorf("analyze: %w", &classify.StageError{Stage: classify.StateFieldsExtracted, Err: errors.New("none")})))
}

func TestHandleDocumentAnalyze(t *testing.T) {
	h := &fakeHandler{}
	w := newTestWorker(h)

	err := w.handleDocumentAnalyze(context.Background(), analyzeTask(t, queue.Task{
		ID:      "task-1",
		Payload: queue.Payload{FileID: "upload:task-1.png", DocumentID: "doc-1"},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, h.hits)
	assert.Equal(t, "doc-1", h.got.Payload.DocumentID)
}

func TestHandleDocumentAnalyzeSkipsRetry(t *testing.T) {
	w := newTestWorker(&fakeHandler{})

	err := w.handleDocumentAnalyze(context.Background(), asynq.NewTask(queue.TaskTypeDocumentAnalyze, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = w.handleDocumentAnalyze(context.Background(), analyzeTask(t, queue.Task{ID: "task-1"}))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	w = newTestWorker(&fakeHandler{err: &classify.StageError{Stage: classify.StateFieldsExtracted, Err: errors.New("no fields")}})
	err = w.handleDocumentAnalyze(context.Background(), analyzeTask(t, queue.Task{ID: "t", Payload: queue.Payload{FileID: "f"}}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleDocumentAnalyzeRetriesTransient(t *testing.T) {
	boom := errors.New("textract throttled")
	w := newTestWorker(&fakeHandler{err: &classify.StageError{Stage: classify.StateTextExtracted, Err: boom}})

	err := w.handleDocumentAnalyze(context.Background(), analyzeTask(t, queue.Task{ID: "t", Payload: queue.Payload{FileID: "f"}}))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
