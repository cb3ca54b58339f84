package providers

import (
	"context"
	"fmt"
)

// JobState is the only status vocabulary that escapes an adapter.
// Every vendor-specific state maps onto exactly these four values.
type JobState string

const (
	JobStatePending    JobState = "pending"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// Terminal reports whether the state ends the job.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// MediaResult is a produced media output. URL points at the vendor's
// ephemeral location; callers persist it durably themselves.
type MediaResult struct {
	URL             string
	MIME            string
	Width           int
	Height          int
	DurationSeconds int
}

// Submission is the outcome of submitting work to a vendor. Either
// Result is set (the vendor completed synchronously) or Handle carries
// the job identifier for later queries.
type Submission struct {
	Handle string
	Result *MediaResult
}

// Job is a queried async job's current state.
type Job struct {
	Handle string
	State  JobState
	Reason string
	Result *MediaResult
}

// ImageInput describes one image generation request.
type ImageInput struct {
	Description  string
	Style        string
	ReferenceURL string
	AspectRatio  string
}

// VideoInput describes one image-to-video generation request.
type VideoInput struct {
	ImageURL        string
	Description     string
	DurationSeconds int
}

// ImageSubmitter wraps a text/image-to-image vendor. The vendor
// completes synchronously, so Submission.Result is always set on
// success.
type ImageSubmitter interface {
	Name() string
	Submit(ctx context.Context, in ImageInput) (*Submission, error)
}

// VideoSubmitter wraps an image-to-video vendor with an asynchronous
// protocol: Submit yields a job handle, Query resolves it.
type VideoSubmitter interface {
	Name() string
	Submit(ctx context.Context, in VideoInput) (*Submission, error)
	Query(ctx context.Context, handle string) (*Job, error)
}

// SceneDraft is one element of a generated storyboard.
type SceneDraft struct {
	Title       string
	Description string
}

// StoryboardInput describes a text-to-structured-scenes request.
type StoryboardInput struct {
	StoryText string
	Style     string
	MaxScenes int
}

// StoryboardSubmitter wraps the text-to-scenes vendor. It is
// synchronous: the scene list comes back in the submit call.
type StoryboardSubmitter interface {
	Name() string
	Submit(ctx context.Context, in StoryboardInput) ([]SceneDraft, error)
}

// GenerationError is the terminal provider error surfaced once an
// adapter's own retry budget is exhausted or the vendor reports an
// explicit failure.
type GenerationError struct {
	Provider string
	Message  string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
