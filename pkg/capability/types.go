package capability

import (
	"context"
	"encoding/json"
)

// File is a single input file carried through the pipeline in memory.
type File struct {
	// Name is the client-supplied filename.
	Name string

	// ContentType is the declared MIME type, empty when unknown.
	ContentType string

	// Data is the file contents.
	Data []byte
}

// Input is the normalized request handed to a capability.
type Input struct {
	// Files are the uploaded files, empty for URL-driven capabilities.
	Files []File

	// SourceURL is the remote resource to process, empty for file-driven
	// capabilities.
	SourceURL string

	// Options carries tool-specific options (e.g. rotation angle).
	Options map[string]string
}

// OutcomeKind discriminates the Outcome union.
type OutcomeKind string

const (
	// OutcomeInline means the capability produced a file.
	OutcomeInline OutcomeKind = "inline"

	// OutcomeStructured means the capability produced a JSON document
	// instead of a file.
	OutcomeStructured OutcomeKind = "structured"

	// OutcomeFailed means the capability produced nothing usable.
	OutcomeFailed OutcomeKind = "failed"
)

// FileResult is the produced file of an inline outcome.
type FileResult struct {
	// Filename is the suggested download filename.
	Filename string

	// ContentType is the MIME type of the produced file.
	ContentType string

	// Data is the produced file contents.
	Data []byte
}

// Outcome is the single result shape every execution path normalizes to.
// Exactly one of File, Document, or Failure is set, matching Kind.
type Outcome struct {
	// Kind discriminates which field below is populated.
	Kind OutcomeKind

	// File holds the produced file for inline outcomes.
	File *FileResult

	// Document holds the JSON payload for structured outcomes.
	Document json.RawMessage

	// Failure describes what went wrong for failed outcomes.
	Failure *Failure

	// Degraded marks an outcome produced by a fallback rather than the
	// primary capability.
	Degraded bool
}

// Succeeded reports whether the outcome carries a usable result.
func (o *Outcome) Succeeded() bool {
	return o.Kind != OutcomeFailed
}

// InlineOutcome builds an inline outcome for a produced file.
func InlineOutcome(filename, contentType string, data []byte) *Outcome {
	return &Outcome{
		Kind: OutcomeInline,
		File: &FileResult{
			Filename:    filename,
			ContentType: contentType,
			Data:        data,
		},
	}
}

// StructuredOutcome builds a structured outcome for a JSON document.
func StructuredOutcome(document json.RawMessage) *Outcome {
	return &Outcome{Kind: OutcomeStructured, Document: document}
}

// FailedOutcome builds a failed outcome from a failure.
func FailedOutcome(failure *Failure) *Outcome {
	return &Outcome{Kind: OutcomeFailed, Failure: failure}
}

// Capability is a processing tool the gateway can dispatch to.
//
// Execute must respect context cancellation and return promptly when the
// context is done. Implementations report domain failures through the
// returned error; the executor folds them into a failed Outcome.
type Capability interface {
	// ID returns the normalized tool identifier.
	ID() string

	// Execute runs the capability to completion and returns its outcome.
	Execute(ctx context.Context, in *Input) (*Outcome, error)
}

// JobState is the lifecycle state of a remote polled job.
type JobState string

const (
	// JobPending means the job is queued but not started upstream.
	JobPending JobState = "pending"

	// JobRunning means the job is processing.
	JobRunning JobState = "running"

	// JobDone means the job finished and its result can be fetched.
	JobDone JobState = "done"

	// JobFailed means the job finished without a result.
	JobFailed JobState = "failed"
)

// JobStatus is a snapshot of a remote job.
type JobStatus struct {
	// State is the job lifecycle state.
	State JobState

	// Message carries upstream detail, usually empty unless failed.
	Message string
}

// PolledCapability is a capability whose work runs as a remote job that must
// be polled to completion.
type PolledCapability interface {
	Capability

	// Start submits the job upstream and returns its identifier.
	Start(ctx context.Context, in *Input) (string, error)

	// Poll reports the current status of a job.
	Poll(ctx context.Context, jobID string) (*JobStatus, error)

	// Fetch retrieves the outcome of a finished job.
	Fetch(ctx context.Context, jobID string) (*Outcome, error)
}
