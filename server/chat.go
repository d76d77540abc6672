package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"osce_webxr_api/patient"
)

type chatRequest struct {
	Message         string         `json:"message" binding:"required"`
	CharacterPrompt string         `json:"character_prompt"`
	ReactionRules   string         `json:"reaction_rules"`
	State           *patient.State `json:"character_state"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := s.withTimeout(c)
	defer cancel()
	reply, err := s.svc.Patient.Reply(ctx, patient.Turn{
		Message:         req.Message,
		CharacterPrompt: req.CharacterPrompt,
		ReactionRules:   req.ReactionRules,
		State:           req.State,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// handleState returns the starting state for a new examination.
func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, patient.DefaultState())
}
