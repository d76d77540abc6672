package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"osce_webxr_api/animation"
	"osce_webxr_api/config"
	"osce_webxr_api/generator"
	"osce_webxr_api/meshy"
	"osce_webxr_api/patient"
	"osce_webxr_api/pkg/logger"
	"osce_webxr_api/server"
)

// buildCompletion returns the resolved provider's client, or a nil interface
// when no provider is configured.
func buildCompletion(cfg *config.Config) (generator.TextCompletionClient, error) {
	ps, ok := cfg.LLM.Completion()
	if !ok {
		return nil, nil
	}
	c, err := generator.NewOpenAICompletion(&generator.LLMSettings{
		Provider:   cfg.LLM.Provider,
		Model:      ps.Model,
		APIKey:     ps.APIKey,
		BaseURL:    ps.BaseURL,
		Referer:    cfg.LLM.Referer,
		Title:      cfg.LLM.Title,
		MaxRetries: cfg.LLM.MaxRetries,
		Timeout:    cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider %s: %w", cfg.LLM.Provider, err)
	}
	return c, nil
}

// buildProvider returns the Meshy client, or a nil interface when
// MESHY_API_KEY is missing.
func buildProvider(cfg *config.Config) (generator.AssetGenerationClient, error) {
	c, err := meshy.New(meshy.Settings{
		APIKey:        cfg.Meshy.APIKey,
		BaseURL:       cfg.Meshy.BaseURL,
		Timeout:       cfg.Meshy.Timeout,
		StatusRetries: cfg.Meshy.StatusRetries,
	}, nil)
	if errors.Is(err, generator.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

type app struct {
	workflow  *generator.Workflow
	patient   *patient.Responder
	animation *animation.Generator
}

func buildApp(cfg *config.Config) (*app, error) {
	llm, err := buildCompletion(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.Default()
	if llm == nil {
		log.Warn("no llm provider configured; prompts pass through with feedback appended")
	}
	if provider == nil {
		log.Warn("MESHY_API_KEY not set; character generation is unavailable")
	}

	orch := generator.NewOrchestrator(provider, generator.OrchestratorSettings{
		ArtStyle:       cfg.Meshy.ArtStyle,
		NegativePrompt: cfg.Meshy.NegativePrompt,
		Mode:           cfg.Meshy.Mode,
		PollInterval:   cfg.Meshy.PollInterval,
	})
	wf, err := generator.NewWorkflow(generator.NewRefiner(llm), orch)
	if err != nil {
		return nil, err
	}
	log.Info("services ready",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("asset_provider", provider != nil),
	)
	return &app{
		workflow:  wf,
		patient:   patient.NewResponder(llm),
		animation: animation.NewGenerator(llm, cfg.Animation.Model),
	}, nil
}

func buildServer(cfg *config.Config, a *app) (*server.Server, error) {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return server.New(server.Services{
		Workflow:  a.workflow,
		Patient:   a.patient,
		Animation: a.animation,
	}, server.Options{
		AppName:        cfg.App.Name,
		Version:        version,
		LLMProvider:    cfg.LLM.Provider,
		CORS:           cfg.Server.CORS,
		MetricsPath:    metricsPath,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxWait:        cfg.Meshy.MaxWait,
	})
}
