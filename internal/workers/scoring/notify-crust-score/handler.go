// internal/workers/scoring/notify-crust-score/handler.go
package notifycrustscore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"loan-intake-workers/internal/common/aws"
	"loan-intake-workers/internal/common/camunda"
	"loan-intake-workers/internal/common/errors"
	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/common/validation"
	"loan-intake-workers/internal/models"
	"loan-intake-workers/internal/scorestore"
	"loan-intake-workers/pkg/crustscore"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "notify-crust-score"

// ContactLookup is implemented by *scorestore.Store.
type ContactLookup interface {
	GetContact(ctx context.Context, userID string) (*models.ApplicantContact, error)
}

type Handler struct {
	config     *Config
	contacts   ContactLookup
	email      aws.EmailSender
	alerts     aws.TopicPublisher
	validator  *validation.Validator
	logger     logger.Logger
	errHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	Config    *Config
	Contacts  ContactLookup
	Email     aws.EmailSender
	Alerts    aws.TopicPublisher
	Validator *validation.Validator
	Logger    logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     opts.Config,
		contacts:   opts.Contacts,
		email:      opts.Email,
		alerts:     opts.Alerts,
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

// Execute publishes the underwriting alert, when one is due, before emailing
// the applicant. A failed alert fails the job; a failed email only sets Status.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	contact, err := h.contacts.GetContact(ctx, input.UserID)
	if err != nil {
		if stderrors.Is(err, scorestore.ErrApplicantNotFound) {
			return nil, errors.NewApplicantNotFoundError(input.UserID).WithMetadata("userId", input.UserID)
		}
		return nil, errors.NewQueryExecutionFailedError("select_contact", err)
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if h.config.AlertsEnabled && needsAlert(input) {
		if err := h.publishAlert(ctx, input); err != nil {
			return nil, errors.NewNotificationSendFailedError("sns", err)
		}
		output.AlertPublished = true
	}

	if h.config.EmailEnabled {
		if !validation.ValidateEmail(contact.Email) {
			h.logger.Warn("applicant has no usable email", map[string]interface{}{
				"userId": input.UserID,
			})
		} else if err := h.sendEmail(ctx, contact, input); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"userId": input.UserID,
				"error":  err,
			})
			output.Status = StatusFailed
		} else {
			output.Status = StatusSent
		}
	}

	h.logger.Info("crust score notification processed", map[string]interface{}{
		"userId":         input.UserID,
		"status":         output.Status,
		"alertPublished": output.AlertPublished,
	})
	return output, nil
}

// needsAlert reports whether underwriting must look at the score.
func needsAlert(input *Input) bool {
	return input.Risk == crustscore.RiskHigh ||
		input.Risk == crustscore.RiskVeryHigh ||
		len(input.RedFlags) > 0
}

func (h *Handler) publishAlert(ctx context.Context, input *Input) error {
	flags := input.RedFlags
	if flags == nil {
		flags = []string{}
	}
	body, err := json.Marshal(underwritingAlert{
		UserID:     input.UserID,
		CrustScore: input.CrustScore,
		Rating:     input.Rating,
		Risk:       input.Risk,
		RedFlags:   flags,
	})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	msg := aws.NewTopicMessage(
		h.config.TopicARN,
		fmt.Sprintf("Crust Score review: applicant %s (%s)", input.UserID, input.Risk),
		string(body),
		map[string]string{
			"risk":        string(input.Risk),
			"rating":      string(input.Rating),
			"hasRedFlags": strconv.FormatBool(len(flags) > 0),
		},
	)
	_, err = h.alerts.Publish(ctx, msg)
	return err
}

func (h *Handler) sendEmail(ctx context.Context, contact *models.ApplicantContact, input *Input) error {
	subject := fmt.Sprintf("Your Crust Score: %s (%s)", formatScore(input.CrustScore), input.Rating)
	_, err := h.email.SendEmail(ctx, aws.NewEmail(h.config.FromEmail, contact.Email, subject, renderText(contact, input), ""))
	return err
}

func renderText(contact *models.ApplicantContact, input *Input) string {
	name := contact.FullName
	if name == "" {
		name = "Applicant"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	fmt.Fprintf(&b, "Your loan application has been scored.\n\n")
	fmt.Fprintf(&b, "Crust Score: %s / 10\n", formatScore(input.CrustScore))
	fmt.Fprintf(&b, "Rating: %s\n", input.Rating)
	fmt.Fprintf(&b, "Risk level: %s\n", input.Risk)
	fmt.Fprintf(&b, "Asset score: %s\n", formatScore(input.AssetScore))
	fmt.Fprintf(&b, "Behaviour score: %s\n", formatScore(input.BehaviourScore))
	fmt.Fprintf(&b, "Cashflow score: %s\n", formatScore(input.CashflowScore))
	if len(input.RedFlags) > 0 {
		b.WriteString("\nItems needing attention:\n")
		for _, flag := range input.RedFlags {
			fmt.Fprintf(&b, "  - %s\n", flag)
		}
	}
	b.WriteString("\nOur underwriting team will be in touch with next steps.\n")
	return b.String()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
