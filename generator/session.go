package generator

import "errors"

// ErrInvalidTransition is returned when a session status would move backward
// or leave a terminal state.
var ErrInvalidTransition = errors.New("invalid session status transition")

// GenerationSession holds the state of one generation request. It is built
// from caller-supplied data on every request and is never stored server side.
type GenerationSession struct {
	OriginalPrompt string             `json:"original_prompt"`
	CurrentPrompt  string             `json:"current_prompt"`
	Feedback       string             `json:"feedback"`
	History        []RefinementRecord `json:"history"`
	TaskID         string             `json:"task_id,omitempty"`
	Status         Status             `json:"status"`
	ModelURL       string             `json:"model_url,omitempty"`
	Type           GenerationType     `json:"generation_type"`
}

// NewSession creates a session whose current prompt is the original one.
func NewSession(original string, typ GenerationType) *GenerationSession {
	return &GenerationSession{
		OriginalPrompt: original,
		CurrentPrompt:  original,
		Status:         StatusNotStarted,
		Type:           typ,
	}
}

// MarkSubmitted records the provider task id and moves the session to
// PROCESSING. The task id can be set only once.
func (s *GenerationSession) MarkSubmitted(taskID string) error {
	if taskID == "" || s.TaskID != "" || s.Status != StatusNotStarted {
		return ErrInvalidTransition
	}
	s.TaskID = taskID
	s.Status = StatusProcessing
	return nil
}

// Advance applies a polled status. Re-applying the current status is a no-op;
// only PROCESSING may move on, and only to a terminal status.
func (s *GenerationSession) Advance(next Status, modelURL string) error {
	if next == s.Status {
		return nil
	}
	if s.Status != StatusProcessing || !next.Terminal() {
		return ErrInvalidTransition
	}
	s.Status = next
	if next == StatusSucceeded {
		s.ModelURL = modelURL
	}
	return nil
}
