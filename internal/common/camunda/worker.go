package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"rag-brand-guard/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// Workers keeps the opened job workers so they can be closed together.
type Workers struct {
	mu      sync.Mutex
	client  zbc.Client
	log     *zap.Logger
	workers map[string]worker.JobWorker
}

func NewWorkers(client zbc.Client, log *zap.Logger) *Workers {
	return &Workers{client: client, log: log, workers: make(map[string]worker.JobWorker)}
}

// Start opens a job worker for taskType unless it is disabled.
func (w *Workers) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) bool {
	if !wcfg.Enabled {
		w.log.Info("worker disabled", zap.String("taskType", taskType))
		return false
	}

	jobWorker := w.client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Name(taskType).
		Open()

	w.mu.Lock()
	w.workers[taskType] = jobWorker
	w.mu.Unlock()

	w.log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return true
}

// Count returns how many workers are open.
func (w *Workers) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.workers)
}

// Close stops every worker and waits for in-flight jobs until ctx expires.
func (w *Workers) Close(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for taskType, jw := range w.workers {
			jw.Close()
			jw.AwaitClose()
			w.log.Info("worker stopped", zap.String("taskType", taskType))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.log.Warn("timed out waiting for workers to stop", zap.Error(ctx.Err()))
	}
}

// CompleteJob sends output as the job's variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	payload, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("failed to marshal job output: %w", err)
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromString(string(payload))
	if err != nil {
		return fmt.Errorf("failed to set job variables: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := cmd.Send(ctx); err != nil {
		return mapZeebeError(err, "complete-job")
	}
	return nil
}
