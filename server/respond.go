package server

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"osce_webxr_api/generator"
	apperrors "osce_webxr_api/pkg/errors"
	"osce_webxr_api/pkg/logger"
)

type errorBody struct {
	Code      apperrors.ErrorCode `json:"code"`
	Message   string              `json:"message"`
	Detail    string              `json:"detail,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

// toAppError maps domain errors onto client-facing codes.
func toAppError(err error) *apperrors.AppError {
	var (
		appErr  *apperrors.AppError
		failure *generator.GenerationFailure
		up      *generator.UpstreamError
	)
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, generator.ErrNotConfigured):
		return apperrors.Wrap(err, apperrors.CodeNotConfigured, "service not configured").WithDetail(err.Error())
	case errors.Is(err, generator.ErrEmptyPrompt), errors.Is(err, generator.ErrEmptyTaskID):
		return apperrors.Wrap(err, apperrors.CodeInvalidParam, err.Error())
	case errors.Is(err, generator.ErrInvalidHistory):
		return apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid history").WithDetail(err.Error())
	case errors.As(err, &failure):
		detail := failure.Detail
		if detail == "" {
			detail = "unknown error"
		}
		return apperrors.Wrap(err, apperrors.CodeGenerationFailed, "generation failed").WithDetail(detail)
	case errors.As(err, &up):
		return apperrors.Wrap(err, apperrors.CodeUpstreamCall, "upstream provider call failed").WithDetail(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.CodeUpstreamCall, "upstream provider timed out")
	case errors.Is(err, generator.ErrInvalidTransition):
		return apperrors.Wrap(err, apperrors.CodeInternalError, "invalid generation state")
	default:
		return apperrors.As(err)
	}
}

func writeError(c *gin.Context, err error) {
	appErr := toAppError(err)
	log := logger.FromContext(c.Request.Context())
	if appErr.HTTPStatus >= 500 {
		log.Error("request failed", zap.String("code", string(appErr.Code)), zap.Error(err))
	} else {
		log.Warn("request rejected", zap.String("code", string(appErr.Code)), zap.Error(err))
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, errorBody{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Detail:    appErr.Detail,
		RequestID: logger.RequestID(c.Request.Context()),
	})
}

// badRequest reports a body that could not be decoded or failed its binding
// rules.
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		writeError(c, apperrors.Wrap(err, apperrors.CodeValidationFailed, "validation failed").WithDetail(err.Error()))
		return
	}
	writeError(c, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid request").WithDetail(err.Error()))
}

func notFound(c *gin.Context) {
	writeError(c, apperrors.New(apperrors.CodeNotFound, "route not found").WithDetail(c.Request.Method+" "+c.Request.URL.Path))
}
