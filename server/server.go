// Package server is the HTTP shell over the generation, chat and animation
// services.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"osce_webxr_api/animation"
	"osce_webxr_api/config"
	"osce_webxr_api/generator"
	"osce_webxr_api/patient"
)

const (
	defaultRequestTimeout = 60 * time.Second
)

// Services are the collaborators the handlers call into.
type Services struct {
	Workflow  *generator.Workflow
	Patient   *patient.Responder
	Animation *animation.Generator
}

// Options tune the HTTP layer.
type Options struct {
	AppName        string
	Version        string
	LLMProvider    string
	CORS           config.CORSConfig
	MetricsPath    string
	RequestTimeout time.Duration
	MaxWait        time.Duration
}

type Server struct {
	svc  Services
	opts Options
}

func New(svc Services, opts Options) (*Server, error) {
	if svc.Workflow == nil {
		return nil, errors.New("generation workflow required")
	}
	if svc.Patient == nil {
		return nil, errors.New("patient responder required")
	}
	if svc.Animation == nil {
		return nil, errors.New("animation generator required")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = generator.DefaultMaxWait
	}
	return &Server{svc: svc, opts: opts}, nil
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(s.middleware()...)
	r.NoRoute(notFound)

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	if s.opts.MetricsPath != "" {
		r.GET(s.opts.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/state", s.handleState)

	api.POST("/generate", s.handleGenerate)
	api.GET("/generate/:task_id", s.handleGenerationStatus)
	api.POST("/generate/:task_id/wait", s.handleGenerationWait)

	api.POST("/animation", s.handleAnimation)
	api.POST("/animation/validate", s.handleAnimationValidate)

	return r
}

// middleware is the chain every route runs through. Metrics wraps Recovery
// so that panicking requests are still counted.
func (s *Server) middleware() []gin.HandlerFunc {
	return []gin.HandlerFunc{RequestID(), AccessLog(), Metrics(), Recovery(), CORS(s.opts.CORS)}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": s.opts.AppName,
		"version": s.opts.Version,
		"status":  "running",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"llm_provider": s.opts.LLMProvider,
		"degraded":     s.svc.Workflow.Degraded(),
	})
}

// withTimeout bounds LLM-backed handlers.
func (s *Server) withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.opts.RequestTimeout)
}
