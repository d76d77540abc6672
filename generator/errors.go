package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured reports a missing credential. It is returned before
	// any upstream call is attempted.
	ErrNotConfigured = errors.New("required credential not configured")

	ErrEmptyPrompt = errors.New("prompt is required")
	ErrEmptyTaskID = errors.New("task id is required")

	// ErrInvalidHistory reports a caller-supplied history whose iterations
	// are not 1, 2, 3, ... in order.
	ErrInvalidHistory = errors.New("refinement history is out of sequence")
)

// UpstreamError wraps a failed call to the completion or generation provider.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream call failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// GenerationFailure is returned when the provider reports the task FAILED.
type GenerationFailure struct {
	TaskID string
	Detail string
}

func (e *GenerationFailure) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = "unknown error"
	}
	return fmt.Sprintf("generation %s failed: %s", e.TaskID, detail)
}
