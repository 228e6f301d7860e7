package convert

import (
	"context"
	"fmt"
	"strings"

	"fileworks-hq/vulcan/pkg/capability"
)

// PageRender renders PDF pages to JPG through the service's job queue. The
// work runs asynchronously upstream, so the capability implements the polled
// contract and is driven by the executor.
type PageRender struct {
	client *Client
}

// NewPageRender creates the pdf-to-jpg capability.
func NewPageRender(client *Client) *PageRender {
	return &PageRender{client: client}
}

// ID implements capability.Capability.
func (p *PageRender) ID() string {
	return "pdf-to-jpg"
}

// Execute reports that this capability must run through the poll loop.
func (p *PageRender) Execute(ctx context.Context, in *capability.Input) (*capability.Outcome, error) {
	return nil, fmt.Errorf("pdf-to-jpg runs as a polled job")
}

// Start uploads the input and enqueues the render job.
func (p *PageRender) Start(ctx context.Context, in *capability.Input) (string, error) {
	file, err := singleFile(p.ID(), in)
	if err != nil {
		return "", err
	}

	name := remoteName(file.Name)
	if err := p.client.Upload(ctx, name, file.Data); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	jobID, err := p.client.StartJob(ctx, name, "jpg")
	if err != nil {
		return "", fmt.Errorf("failed to enqueue render job: %w", err)
	}
	return jobID, nil
}

// Poll maps the service job states onto the executor's job states.
func (p *PageRender) Poll(ctx context.Context, jobID string) (*capability.JobStatus, error) {
	status, message, err := p.client.JobStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(status) {
	case "queued", "pending":
		return &capability.JobStatus{State: capability.JobPending}, nil
	case "processing", "running":
		return &capability.JobStatus{State: capability.JobRunning}, nil
	case "done", "completed", "finished":
		return &capability.JobStatus{State: capability.JobDone}, nil
	case "failed", "error":
		return &capability.JobStatus{State: capability.JobFailed, Message: message}, nil
	default:
		return nil, fmt.Errorf("unknown job status %q", status)
	}
}

// Fetch downloads the rendered page archive.
func (p *PageRender) Fetch(ctx context.Context, jobID string) (*capability.Outcome, error) {
	data, contentType, err := p.client.FetchResult(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch render result: %w", err)
	}
	if contentType == "" {
		contentType = "application/zip"
	}
	return capability.InlineOutcome("pages.zip", contentType, data), nil
}
