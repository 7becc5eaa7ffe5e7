package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	t.Run("business error is not retried", func(t *testing.T) {
		stdErr := NewCrustScoreInputInvalidError(fmt.Errorf("Missing input: dpd_days"))
		bpmn := ConvertToBPMNError(stdErr)

		assert.Equal(t, "CRUST_SCORE_INPUT_INVALID", bpmn.Code)
		assert.Equal(t, "Missing input: dpd_days", bpmn.Message)
		assert.False(t, bpmn.Retryable)
		assert.Equal(t, 0, bpmn.Retries)
		assert.Equal(t, "CRUST_SCORE_INPUT_INVALID", bpmn.ErrorVariables["originalErrorCode"])
	})

	t.Run("technical error keeps its budget", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewDatabaseInsertFailedError(stderrors.New("conn reset")))
		assert.True(t, bpmn.Retryable)
		assert.Equal(t, 3, bpmn.Retries)
	})

	t.Run("metadata becomes error variables", func(t *testing.T) {
		stdErr := NewApplicantNotFoundError("u-1").WithMetadata("userId", "u-1")
		vars := ConvertToBPMNError(stdErr).ToErrorVariables()

		assert.Equal(t, "APPLICANT_NOT_FOUND", vars["errorCode"])
		assert.Equal(t, "u-1", vars["userId"])
		assert.Equal(t, false, vars["retryable"])
	})

	t.Run("unknown code passes through", func(t *testing.T) {
		bpmn := ConvertToBPMNError(&StandardError{Code: "SOMETHING_ELSE", Message: "x"})
		assert.Equal(t, "SOMETHING_ELSE", bpmn.Code)
	})
}

func TestDecideAction(t *testing.T) {
	tests := []struct {
		name       string
		err        *StandardError
		jobRetries int32
		want       JobAction
	}{
		{"business error throws", NewInvalidJobVariablesError("bad"), 3, JobAction{Throw: true}},
		{"retryable decrements", NewDatabaseInsertFailedError(stderrors.New("x")), 3, JobAction{Retries: 2}},
		{"capped by budget", NewQueryTimeoutError("select"), 10, JobAction{Retries: 2}},
		{"last attempt throws", NewNotificationSendFailedError("email", stderrors.New("x")), 1, JobAction{Throw: true}},
		{"no retries left throws", NewCacheOperationFailedError("set", stderrors.New("x")), 0, JobAction{Throw: true}},
		{"internal error throws", NewInternalError(stderrors.New("x")), 3, JobAction{Throw: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideAction(tt.err, tt.jobRetries))
		})
	}
}

func TestNormalize(t *testing.T) {
	stdErr := NewIndexOperationFailedError("crust-scores", stderrors.New("503"))
	wrapped := fmt.Errorf("index worker: %w", stdErr)
	assert.Same(t, stdErr, Normalize(wrapped))

	plain := stderrors.New("boom")
	got := Normalize(plain)
	assert.Equal(t, ErrCodeInternal, got.Code)
	assert.Equal(t, "boom", got.Details)
	assert.True(t, stderrors.Is(got, plain))
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	stdErr := NewDatabaseConnectionFailedError(cause)
	require.ErrorIs(t, stdErr, cause)
	assert.Equal(t, "StandardError[DATABASE_CONNECTION_FAILED]: Database connection error", stdErr.Error())
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SCORING", GetErrorCategory(ErrCodeCrustScoreInputInvalid))
	assert.Equal(t, "APPLICANT", GetErrorCategory(ErrCodeApplicantNotFound))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheOperationFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexOperationFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidJobVariables))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeElasticsearchConnectionFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeApplicantNotFound))
}
