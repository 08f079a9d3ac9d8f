package grading

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed question authoring input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateAssignment indicates the assessment is already assigned to the target placement.
	ErrDuplicateAssignment = errors.New("assessment already assigned to this course, year level and section")
	// ErrSubmissionWindowClosed indicates a submission was attempted while the assignment was not available.
	ErrSubmissionWindowClosed = errors.New("submission window is closed")
	// ErrAlreadySubmitted indicates the student already has a completed submission for the assessment.
	ErrAlreadySubmitted = errors.New("assessment already submitted")
)

// ValidationError names the offending field of a rejected question.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
