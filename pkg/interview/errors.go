package interview

import (
	"errors"
	"fmt"
)

// ErrInterviewNotFound is returned when a referenced interview id is not
// registered.
var ErrInterviewNotFound = errors.New("interview not found")

// InterviewError is a definitional error: a broken document (unknown ids,
// cyclical step dependencies, values no question can provide). It is fatal
// for the update and is never retried.
type InterviewError struct {
	Reason string
}

func (e *InterviewError) Error() string { return e.Reason }

func errorf(format string, args ...any) *InterviewError {
	return &InterviewError{Reason: fmt.Sprintf(format, args...)}
}
