package crustscore

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by every error the engine returns.
var ErrInvalidInput = errors.New("invalid crust score input")

// MissingFieldError reports the first required raw-mode field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing input: %s", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrInvalidInput }

// RangeError reports a raw-mode field outside its valid interval.
type RangeError struct {
	Field string
	Min   float64
	Max   float64
	Value float64
}

// Messages are part of the API contract; callers surface them verbatim.
var rangeMessages = map[string]string{
	FieldCibilScore:               "CIBIL score must be between 300 and 900",
	FieldAbsorptionRate:           "Absorption rate must be between 0 and 1",
	FieldDeveloperContributionPct: "Developer contribution must be between 0 and 1",
}

func (e *RangeError) Error() string {
	if msg, ok := rangeMessages[e.Field]; ok {
		return msg
	}
	return fmt.Sprintf("%s must be between %g and %g", e.Field, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrInvalidInput }

// InvalidFieldError reports a direct-mode sub-score that is not a number.
type InvalidFieldError struct {
	Field string
	Value interface{}
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("Invalid input: %s must be a number, got %T", e.Field, e.Value)
}

func (e *InvalidFieldError) Unwrap() error { return ErrInvalidInput }

// FieldOf returns the field name carried by an engine error, or "".
func FieldOf(err error) string {
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		return missing.Field
	}
	var rangeErr *RangeError
	if errors.As(err, &rangeErr) {
		return rangeErr.Field
	}
	var invalid *InvalidFieldError
	if errors.As(err, &invalid) {
		return invalid.Field
	}
	return ""
}
