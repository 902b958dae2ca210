package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/docintel/internal/agent/classify"
	"github.com/feichai0017/docintel/pkg/logger"
	"github.com/feichai0017/docintel/pkg/queue"
)

// TaskHandler is the service side of a document task
type TaskHandler interface {
	HandleDocument(ctx context.Context, task *queue.Task) error
}

type DocumentWorker struct {
	BaseWorker
	handler TaskHandler
}

func NewDocumentWorker(cfg *Config, handler TaskHandler, log logger.Logger) (*DocumentWorker, error) {
	if cfg.Queues == nil {
		cfg.Queues = map[string]int{"critical": 6, "default": 3, "low": 1}
	}
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &DocumentWorker{
		BaseWorker: BaseWorker{
			server:  server,
			mux:     asynq.NewServeMux(),
			logger:  log,
			stopped: make(chan struct{}),
		},
		handler: handler,
	}

	w.mux.HandleFunc(queue.TaskTypeDocumentAnalyze, w.handleDocumentAnalyze)
	return w, nil
}

func (w *DocumentWorker) handleDocumentAnalyze(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task", logger.Error(err))
		return fmt.Errorf("failed to unmarshal task: %v: %w", err, asynq.SkipRetry)
	}

	if task.ID == "" || task.Payload.FileID == "" {
		w.logger.Error("Invalid task data", logger.String("taskId", task.ID))
		return fmt.Errorf("invalid task data: %w", asynq.SkipRetry)
	}

	w.logger.Info("Processing document task",
		logger.String("taskId", task.ID),
		logger.String("documentId", task.Payload.DocumentID),
		logger.String("filename", task.Payload.Filename),
	)

	writeResult(w.logger, t, map[string]interface{}{"status": "running", "progress": 0})

	if err := w.handler.HandleDocument(ctx, &task); err != nil {
		writeResult(w.logger, t, map[string]interface{}{"status": "failed", "error": err.Error()})
		if !Retryable(err) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	writeResult(w.logger, t, map[string]interface{}{"status": "completed", "progress": 100})
	return nil
}

// Retryable is false for failures that a retry cannot fix: a document
// without the expected fields stays that way.
func Retryable(err error) bool {
	stage, ok := classify.FailedStage(err)
	return !ok || stage != classify.StateFieldsExtracted
}

func writeResult(log logger.Logger, t *asynq.Task, v map[string]interface{}) {
	rw := t.ResultWriter()
	if rw == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if _, err := rw.Write(data); err != nil {
		log.Error("Failed to write task result", logger.Error(err))
	}
}

func (w *DocumentWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker server: %w", err)
	}

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopped:
		}
	}()

	return nil
}
