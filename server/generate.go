package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"osce_webxr_api/generator"
)

type generateRequest struct {
	Prompt        string                       `json:"prompt" binding:"required"`
	CurrentPrompt string                       `json:"current_prompt"`
	Feedback      string                       `json:"feedback"`
	History       []generator.RefinementRecord `json:"history"`
	Type          string                       `json:"type"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	typ, err := generator.ParseGenerationType(req.Type)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.withTimeout(c)
	defer cancel()
	resp, _, err := s.svc.Workflow.Process(ctx, generator.GenerationRequest{
		OriginalPrompt: req.Prompt,
		CurrentPrompt:  req.CurrentPrompt,
		Feedback:       req.Feedback,
		History:        req.History,
		Type:           typ,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGenerationStatus(c *gin.Context) {
	ctx, cancel := s.withTimeout(c)
	defer cancel()
	res, err := s.svc.Workflow.Orchestrator().Poll(ctx, c.Param("task_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type waitRequest struct {
	MaxWaitSeconds int `json:"max_wait_seconds"`
}

// handleGenerationWait blocks until the task finishes or the wait limit
// passes. A timeout answers 202 so the caller knows to poll again.
func (s *Server) handleGenerationWait(c *gin.Context) {
	var req waitRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	maxWait := s.opts.MaxWait
	if req.MaxWaitSeconds > 0 {
		if d := time.Duration(req.MaxWaitSeconds) * time.Second; d < maxWait {
			maxWait = d
		}
	}

	// The wait limit is enforced by AwaitCompletion; the margin covers the
	// final poll.
	ctx, cancel := context.WithTimeout(c.Request.Context(), maxWait+s.opts.RequestTimeout)
	defer cancel()
	done, err := s.svc.Workflow.Orchestrator().AwaitCompletion(ctx, c.Param("task_id"), maxWait)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if done.Outcome == generator.OutcomeTimeout {
		status = http.StatusAccepted
	}
	c.JSON(status, done)
}
