// internal/workers/scoring/calculate-crust-score/handler.go
package calculatecrustscore

import (
	"context"

	"loan-intake-workers/internal/common/camunda"
	"loan-intake-workers/internal/common/errors"
	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/common/metrics"
	"loan-intake-workers/internal/common/validation"
	"loan-intake-workers/internal/models"
	"loan-intake-workers/pkg/crustscore"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "calculate-crust-score"

type Handler struct {
	config     *Config
	validator  *validation.Validator
	logger     logger.Logger
	errHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	Config    *Config
	Validator *validation.Validator
	Logger    logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     opts.Config,
		validator:  opts.Validator,
		logger:     log,
		errHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var input Input
	if err := h.validator.DecodeJob(TaskType, job, &input); err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(ctx, client, job, output, h.logger)
}

// Execute scores input.ScoreInputs. Engine rejections become
// CRUST_SCORE_INPUT_INVALID with the engine message.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := crustscore.Calculate(input.ScoreInputs)
	if err != nil {
		field := crustscore.FieldOf(err)
		metrics.RecordScoreError(field)

		stdErr := errors.NewCrustScoreInputInvalidError(err).WithMetadata("userId", input.UserID)
		if field != "" {
			stdErr.WithMetadata("field", field)
		}
		return nil, stdErr
	}

	metrics.RecordScore(string(result.Mode), string(result.Rating), result.CompositeScore, result.HasRedFlags())

	h.logger.Info("crust score calculated", map[string]interface{}{
		"userId":       input.UserID,
		"mode":         string(result.Mode),
		"crustScore":   result.CompositeScore,
		"rating":       string(result.Rating),
		"risk":         string(result.Risk),
		"redFlagCount": len(result.RedFlags),
	})

	return &Output{ScoreVariables: models.NewScoreVariables(result)}, nil
}
