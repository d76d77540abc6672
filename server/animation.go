package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"osce_webxr_api/animation"
)

type animationRequest struct {
	BoneStructure []animation.Bone `json:"bone_structure" binding:"required,min=1"`
	Prompt        string           `json:"prompt" binding:"required"`
}

type animationResponse struct {
	animation.Result
	Validation animation.Validation `json:"validation"`
}

func (s *Server) handleAnimation(c *gin.Context) {
	var req animationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := s.withTimeout(c)
	defer cancel()
	res, err := s.svc.Animation.Generate(ctx, req.BoneStructure, req.Prompt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, animationResponse{Result: res, Validation: animation.Validate(res.Code)})
}

type validateRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleAnimationValidate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, animation.Validate(req.Code))
}
