package validation

import (
	stderrors "errors"
	"testing"

	"loan-intake-workers/internal/common/errors"
	"loan-intake-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	v, err := NewValidator(reg)
	require.NoError(t, err)
	return v
}

func TestValidator_ValidateJob(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name      string
		taskType  string
		variables string
		valid     bool
		field     string
	}{
		{
			name:      "calculate with raw inputs",
			taskType:  "calculate-crust-score",
			variables: `{"userId":"42","scoreInputs":{"cibil_score":780}}`,
			valid:     true,
		},
		{
			name:      "calculate without scoreInputs",
			taskType:  "calculate-crust-score",
			variables: `{"userId":"42"}`,
			valid:     false,
			field:     "(root)",
		},
		{
			name:      "calculate with empty userId",
			taskType:  "calculate-crust-score",
			variables: `{"userId":"","scoreInputs":{}}`,
			valid:     false,
			field:     "userId",
		},
		{
			name:      "persist with unknown rating",
			taskType:  "persist-crust-score",
			variables: `{"userId":"42","crustScore":7.2,"rating":"Z","risk":"Moderate"}`,
			valid:     false,
			field:     "rating",
		},
		{
			name:      "persist with score out of range",
			taskType:  "persist-crust-score",
			variables: `{"userId":"42","crustScore":11,"rating":"A+","risk":"Very Low"}`,
			valid:     false,
			field:     "crustScore",
		},
		{
			name:      "notify with null red flags",
			taskType:  "notify-crust-score",
			variables: `{"userId":"42","crustScore":0,"rating":"D","risk":"Very High","redFlags":null}`,
			valid:     true,
		},
		{
			name:      "unregistered task type",
			taskType:  "something-else",
			variables: `not even json`,
			valid:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.ValidateJob(tt.taskType, tt.variables)
			assert.Equal(t, tt.valid, result.Valid, result.Summary())
			if tt.field != "" {
				assert.True(t, result.HasErrors(tt.field), result.Summary())
			}
		})
	}
}

func TestValidator_MalformedJSON(t *testing.T) {
	result := newValidator(t).ValidateJob("calculate-crust-score", `{"userId":`)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "INVALID_JSON", result.Errors[0].Code)
}

func TestValidator_MissingFieldMessage(t *testing.T) {
	result := newValidator(t).ValidateJob("index-crust-score", `{"crustScore":5,"rating":"C","risk":"High"}`)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Summary(), "userId is required")
}

func TestValidator_DecodeJob(t *testing.T) {
	v := newValidator(t)
	job := func(vars string) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: vars}}
	}

	var out struct {
		UserID      string                 `json:"userId"`
		ScoreInputs map[string]interface{} `json:"scoreInputs"`
	}
	require.NoError(t, v.DecodeJob("calculate-crust-score", job(`{"userId":"42","scoreInputs":{"dpd_days":0}}`), &out))
	assert.Equal(t, "42", out.UserID)
	assert.Equal(t, float64(0), out.ScoreInputs["dpd_days"])

	err := v.DecodeJob("calculate-crust-score", job(`{"scoreInputs":{}}`), &out)
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeInvalidJobVariables, stdErr.Code)
	assert.Contains(t, stdErr.Details, "userId")

	var nilValidator *Validator
	err = nilValidator.DecodeJob("calculate-crust-score", job(`{"userId":`), &out)
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeInvalidJobVariables, stdErr.Code)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("dev@builder.co.in"))
	assert.False(t, ValidateEmail("not-an-email"))
}
