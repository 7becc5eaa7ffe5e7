// internal/workers/scoring/index-crust-score/handler.go
package indexcrustscore

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"loan-intake-workers/internal/common/camunda"
	"loan-intake-workers/internal/common/errors"
	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const TaskType = "index-crust-score"

type Handler struct {
	config     *Config
	es         *elasticsearch.Client
	validator  *validation.Validator
	logger     logger.Logger
	errHandler *errors.ErrorHandler
	now        func() time.Time
}

type HandlerOptions struct {
	Config    *Config
	ES        *elasticsearch.Client
	Validator *validation.Validator
	Logger    logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     opts.Config,
		es:         opts.ES,
		validator:  opts.Validator,
		logger:     log,
		errHandler: errors.NewErrorHandler(log),
		now:        func() time.Time { return time.Now().UTC() },
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

// Execute writes the applicant's score document, replacing any previous one.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	doc := h.buildDocument(input)
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("encode score document: %w", err))
	}

	res, err := h.es.Index(
		h.config.IndexName,
		bytes.NewReader(body),
		h.es.Index.WithContext(ctx),
		h.es.Index.WithDocumentID(input.UserID),
	)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewSearchTimeoutError(h.config.IndexName)
		}
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewIndexOperationFailedError(h.config.IndexName, fmt.Errorf("%s", res.String()))
	}

	var parsed indexResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		h.logger.Warn("unreadable index response", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
	}

	h.logger.Info("crust score indexed", map[string]interface{}{
		"userId": input.UserID,
		"index":  h.config.IndexName,
		"result": parsed.Result,
	})

	return &Output{
		Indexed:    true,
		DocumentID: input.UserID,
		Result:     parsed.Result,
	}, nil
}

func (h *Handler) buildDocument(input *Input) ScoreDocument {
	flags := input.RedFlags
	if flags == nil {
		flags = []string{}
	}
	return ScoreDocument{
		UserID:      input.UserID,
		CrustScore:  input.CrustScore,
		Rating:      input.Rating,
		Risk:        input.Risk,
		ScoringMode: input.Result().Mode,
		RedFlags:    flags,
		HasRedFlags: len(flags) > 0,
		ScoredAt:    h.now().Format(time.RFC3339),
	}
}
