package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrSpecInvalid means the specification cannot be used at all
	ErrSpecInvalid = errors.New("specification invalid")
	// ErrSpecMismatch means the specification is for a different questionnaire
	ErrSpecMismatch = errors.New("specification questionnaire id mismatch")
	// ErrInvalidTransition means the action is not allowed in the session's state
	ErrInvalidTransition = errors.New("action not allowed in current state")
	// ErrIncomplete wraps the ValidationError of a submission blocked by an
	// earlier answer. The session has moved to that question and must be kept.
	ErrIncomplete = errors.New("questionnaire incomplete")
)

// Validation error codes
const (
	CodeRequired          = "required"
	CodeCodeRequired      = "code_required"
	CodeCodeTooLong       = "code_too_long"
	CodeNotANumber        = "not_a_number"
	CodeBelowMin          = "below_min"
	CodeAboveMax          = "above_max"
	CodeTooShort          = "too_short"
	CodeTooLong           = "too_long"
	CodePatternMismatch   = "pattern_mismatch"
	CodePatternInvalid    = "pattern_invalid"
	CodeInvalidOption     = "invalid_option"
	CodeNotAList          = "not_a_list"
	CodeExclusiveConflict = "exclusive_conflict"
	CodeNotABoolean       = "not_a_boolean"
)

// ValidationError is a recoverable, per-field error. It blocks advancing past
// the current question and leaves stored answers untouched.
type ValidationError struct {
	QuestionID string `json:"question_id,omitempty"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.QuestionID == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.QuestionID, e.Message)
}

func invalid(questionID, code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{QuestionID: questionID, Code: code, Message: fmt.Sprintf(format, args...)}
}

// SubmissionError wraps a failure of the submission sink. Answers are kept so
// the respondent can retry.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
