// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"loan-intake-workers/internal/common/config"
	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/common/metrics"
	"loan-intake-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// JobHandler handles one activated job. ctx carries the job's span and has
// no deadline of its own.
type JobHandler func(ctx context.Context, client worker.JobClient, job entities.Job)

// StartWorker opens a job worker for taskType with the instrumented handler.
// It returns nil when the worker is disabled.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, obs, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jobWorker
}

// Instrument wraps next with a span, the active-jobs gauge and outcome
// metrics. next runs under the span's context. The outcome is whichever job
// command next created last.
func Instrument(taskType string, obs *observability.Observability, next JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		defer active.Dec()

		ctx, span := obs.StartSpan(context.Background(), taskType,
			attribute.Int64("job.key", job.Key),
			attribute.Int64("process.instance.key", job.ProcessInstanceKey),
		)
		defer span.End()

		oc := &outcomeClient{JobClient: client, outcome: metrics.OutcomeNone}
		next(ctx, oc, job)

		elapsed := time.Since(start)
		metrics.RecordJobOutcome(taskType, oc.outcome, elapsed)
		obs.RecordJobProcessed(ctx, taskType, oc.outcome)
		obs.RecordJobDuration(ctx, taskType, elapsed, oc.outcome)

		span.SetAttributes(attribute.String("job.outcome", oc.outcome))
		if oc.outcome != metrics.OutcomeCompleted {
			span.SetStatus(codes.Error, oc.outcome)
		}
	}
}

// CompleteJob completes job with vars as its output variables. Send failures
// are logged; the job is then retried by the broker after its timeout.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, vars interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(vars)
	if err != nil {
		log.Error("failed to encode output variables", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		log.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	log.Info("job completed", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
}

type outcomeClient struct {
	worker.JobClient
	outcome string
}

func (c *outcomeClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.outcome = metrics.OutcomeCompleted
	return c.JobClient.NewCompleteJobCommand()
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.outcome = metrics.OutcomeFailed
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.outcome = metrics.OutcomeThrown
	return c.JobClient.NewThrowErrorCommand()
}
