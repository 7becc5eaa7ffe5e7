// internal/workers/scoring/persist-crust-score/handler.go
package persistcrustscore

import (
	"context"
	stderrors "errors"
	"time"

	"loan-intake-workers/internal/common/camunda"
	"loan-intake-workers/internal/common/errors"
	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/common/validation"
	"loan-intake-workers/internal/models"
	"loan-intake-workers/internal/scorestore"
	"loan-intake-workers/pkg/crustscore"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "persist-crust-score"

// ScoreSaver is implemented by *scorestore.Store.
type ScoreSaver interface {
	SaveScore(ctx context.Context, userID string, result *crustscore.Result) (*models.ScoreRecord, error)
}

type Handler struct {
	config     *Config
	store      ScoreSaver
	validator  *validation.Validator
	logger     logger.Logger
	errHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	Config    *Config
	Store     ScoreSaver
	Validator *validation.Validator
	Logger    logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     opts.Config,
		store:      opts.Store,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	record, err := h.store.SaveScore(ctx, input.UserID, input.Result())
	if err != nil {
		switch {
		case stderrors.Is(err, scorestore.ErrApplicantNotFound):
			return nil, errors.NewApplicantNotFoundError(input.UserID).WithMetadata("userId", input.UserID)
		case stderrors.Is(err, context.DeadlineExceeded):
			return nil, errors.NewQueryTimeoutError("save_score")
		default:
			return nil, errors.NewDatabaseInsertFailedError(err)
		}
	}

	h.logger.Info("crust score persisted", map[string]interface{}{
		"userId":        input.UserID,
		"scoreRecordId": record.ID,
		"crustScore":    record.CompositeScore,
		"rating":        string(record.Rating),
	})

	return &Output{
		ScoreRecordID: record.ID,
		PersistedAt:   record.CreatedAt.Format(time.RFC3339),
	}, nil
}
