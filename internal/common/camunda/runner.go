package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/metrics"
	"rag-brand-guard/internal/common/observability"
)

// JobFunc does a job's work and returns the variables to complete it with.
type JobFunc func(ctx context.Context) (interface{}, error)

// JobRunner carries the bookkeeping every handler shares: the job deadline,
// metrics, a span, completion and error routing.
type JobRunner struct {
	taskType     string
	timeout      time.Duration
	logger       logger.Logger
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
}

func NewJobRunner(taskType string, timeout time.Duration, log logger.Logger, obs *observability.Observability) *JobRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobRunner{
		taskType:     taskType,
		timeout:      timeout,
		logger:       log,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
	}
}

// Run executes fn for job and completes it, or fails it through the error
// handler.
func (r *JobRunner) Run(client worker.JobClient, job entities.Job, fn JobFunc) {
	started := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ctx, span := r.obs.StartSpan(ctx, r.taskType,
		attribute.Int64("job.key", job.GetKey()),
		attribute.Int64("job.process_instance_key", job.GetProcessInstanceKey()),
	)
	defer span.End()

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"retries":            job.GetRetries(),
	})

	output, err := fn(ctx)
	if err == nil {
		err = CompleteJob(ctx, client, job, output)
	}
	if err != nil {
		span.RecordError(err)
		code := string(errors.AsStandardError(err).Code)
		r.finish(ctx, started, code)
		r.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	r.finish(ctx, started, "")
	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.GetKey(),
		"durationMs": time.Since(started).Milliseconds(),
	})
}

func (r *JobRunner) finish(ctx context.Context, started time.Time, errorCode string) {
	metrics.ObserveJob(r.taskType, started, errorCode)

	status := "completed"
	if errorCode != "" {
		status = "failed"
	}
	r.obs.RecordJobProcessed(ctx, r.taskType, status)
	r.obs.RecordJobDuration(ctx, r.taskType, time.Since(started), status)
}
