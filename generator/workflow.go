package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Workflow runs one generation request: refine the prompt, then submit it.
type Workflow struct {
	refiner      *Refiner
	orchestrator *Orchestrator
}

func NewWorkflow(refiner *Refiner, orchestrator *Orchestrator) (*Workflow, error) {
	if refiner == nil || orchestrator == nil {
		return nil, errors.New("refiner and orchestrator are required")
	}
	return &Workflow{refiner: refiner, orchestrator: orchestrator}, nil
}

// Orchestrator exposes the underlying orchestrator for status queries.
func (w *Workflow) Orchestrator() *Orchestrator {
	return w.orchestrator
}

// Degraded reports whether prompts are refined without a completion client.
func (w *Workflow) Degraded() bool {
	return w.refiner.Degraded()
}

// GenerationRequest carries everything the caller knows about the session.
// History and CurrentPrompt come back from a previous response.
type GenerationRequest struct {
	OriginalPrompt string
	CurrentPrompt  string
	Feedback       string
	History        []RefinementRecord
	Type           GenerationType
}

// GenerationResponse is what a caller needs to continue the session.
type GenerationResponse struct {
	RefinedPrompt string             `json:"refined_prompt"`
	TaskID        string             `json:"task_id,omitempty"`
	Status        string             `json:"status"`
	History       []RefinementRecord `json:"history"`
	Message       string             `json:"message,omitempty"`
}

// Process refines the prompt and submits it. Status is "processing" after a
// provider accepted the task and "pending" for the scene stub.
func (w *Workflow) Process(ctx context.Context, req GenerationRequest) (GenerationResponse, *GenerationSession, error) {
	if strings.TrimSpace(req.OriginalPrompt) == "" {
		return GenerationResponse{}, nil, ErrEmptyPrompt
	}
	typ := req.Type
	if typ == "" {
		typ = Character
	}
	s := NewSession(req.OriginalPrompt, typ)
	if req.CurrentPrompt != "" {
		s.CurrentPrompt = req.CurrentPrompt
	}
	s.Feedback = req.Feedback
	s.History = req.History

	refined, history, err := w.refiner.Refine(ctx, s.OriginalPrompt, s.CurrentPrompt, s.Feedback, s.History)
	if err != nil {
		return GenerationResponse{}, s, fmt.Errorf("refine stage: %w", err)
	}
	s.CurrentPrompt = refined
	s.History = history
	if s.History == nil {
		s.History = []RefinementRecord{}
	}

	sub, err := w.orchestrator.Submit(ctx, refined, s.Type)
	if err != nil {
		return GenerationResponse{}, s, fmt.Errorf("submit stage: %w", err)
	}

	resp := GenerationResponse{
		RefinedPrompt: s.CurrentPrompt,
		History:       s.History,
		Message:       sub.Message,
	}
	if sub.Stub {
		resp.Status = strings.ToLower(sub.Status)
		return resp, s, nil
	}
	if err := s.MarkSubmitted(sub.TaskID); err != nil {
		return GenerationResponse{}, s, fmt.Errorf("submit stage: %w", err)
	}
	resp.TaskID = s.TaskID
	resp.Status = strings.ToLower(string(s.Status))
	return resp, s, nil
}
