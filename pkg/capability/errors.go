package capability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FailureClass categorizes why a capability produced no result.
type FailureClass string

const (
	// FailureInvalidInput means the client's input cannot be processed.
	FailureInvalidInput FailureClass = "invalid_input"

	// FailureUpstream means the upstream processing service failed.
	FailureUpstream FailureClass = "upstream"

	// FailureTimeout means the work did not finish within its deadline.
	FailureTimeout FailureClass = "timeout"

	// FailureCancelled means the caller abandoned the request.
	FailureCancelled FailureClass = "cancelled"

	// FailureInternal means the gateway itself failed.
	FailureInternal FailureClass = "internal"
)

// Failure describes a failed outcome.
type Failure struct {
	// Class categorizes the failure.
	Class FailureClass

	// Tool is the capability that failed.
	Tool string

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("capability %q failed (%s): %s", f.Tool, f.Class, f.Message)
}

// Unwrap returns the underlying error for error chain support.
func (f *Failure) Unwrap() error {
	return f.Cause
}

// PollTimeoutError reports that a polled job did not finish within the
// executor's deadline. It is distinct from an upstream failure: the job may
// still be running, the gateway just stopped waiting.
type PollTimeoutError struct {
	// Tool is the capability whose job timed out.
	Tool string

	// JobID is the upstream job identifier.
	JobID string

	// Deadline is the configured maximum wait.
	Deadline time.Duration

	// Attempts is the number of polls performed before giving up.
	Attempts int
}

// Error implements the error interface.
func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("capability %q job %q not finished after %s (%d polls)",
		e.Tool, e.JobID, e.Deadline, e.Attempts)
}

// classify maps an execution error to a failure class.
func classify(err error) FailureClass {
	var pollTimeout *PollTimeoutError
	switch {
	case errors.As(err, &pollTimeout):
		return FailureTimeout
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCancelled
	}

	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Class
	}

	return FailureUpstream
}

// asFailure folds an execution error into a Failure for the given tool.
func asFailure(tool string, err error) *Failure {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}
	return &Failure{
		Class:   classify(err),
		Tool:    tool,
		Message: err.Error(),
		Cause:   err,
	}
}
