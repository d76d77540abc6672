package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"osce_webxr_api/pkg/logger"
	"osce_webxr_api/pkg/metrics"
)

const (
	DefaultPollInterval   = 5 * time.Second
	DefaultMaxWait        = 300 * time.Second
	DefaultArtStyle       = "realistic"
	DefaultNegativePrompt = "low quality, blurry, distorted"
	DefaultMode           = "preview"

	// SceneNotImplementedMessage is returned for SCENE submissions, which
	// have no backing provider yet.
	SceneNotImplementedMessage = "Scene generation coming soon. Use character generation for now."
	stubStatusPending          = "PENDING"
)

// OrchestratorSettings holds the fixed provider parameters.
type OrchestratorSettings struct {
	ArtStyle       string
	NegativePrompt string
	Mode           string
	PollInterval   time.Duration
}

func (s *OrchestratorSettings) applyDefaults() {
	if s.ArtStyle == "" {
		s.ArtStyle = DefaultArtStyle
	}
	if s.NegativePrompt == "" {
		s.NegativePrompt = DefaultNegativePrompt
	}
	if s.Mode == "" {
		s.Mode = DefaultMode
	}
	if s.PollInterval <= 0 {
		s.PollInterval = DefaultPollInterval
	}
}

// Orchestrator submits prompts to the asset provider and tracks the task.
type Orchestrator struct {
	provider AssetGenerationClient
	settings OrchestratorSettings
}

// NewOrchestrator creates an Orchestrator. A nil provider is allowed; calls
// that need it fail with ErrNotConfigured.
func NewOrchestrator(provider AssetGenerationClient, settings OrchestratorSettings) *Orchestrator {
	settings.applyDefaults()
	return &Orchestrator{provider: provider, settings: settings}
}

// SubmitResult describes a submission. Stub is set for SCENE requests, which
// never reach a provider.
type SubmitResult struct {
	TaskID  string `json:"task_id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Stub    bool   `json:"stub,omitempty"`
}

// Submit starts a generation for prompt.
func (o *Orchestrator) Submit(ctx context.Context, prompt string, typ GenerationType) (SubmitResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return SubmitResult{}, ErrEmptyPrompt
	}
	log := logger.FromContext(ctx)

	switch typ {
	case Scene:
		metrics.GenerationSubmitTotal.WithLabelValues(string(typ), "stub").Inc()
		log.Info("scene generation requested; returning stub")
		return SubmitResult{Status: stubStatusPending, Message: SceneNotImplementedMessage, Stub: true}, nil
	case Character:
	default:
		return SubmitResult{}, fmt.Errorf("unknown generation type %q", typ)
	}

	if o.provider == nil {
		return SubmitResult{}, fmt.Errorf("asset provider: %w", ErrNotConfigured)
	}
	taskID, err := o.provider.CreateTextTo3D(ctx, TextTo3DRequest{
		Prompt:         prompt,
		ArtStyle:       o.settings.ArtStyle,
		NegativePrompt: o.settings.NegativePrompt,
		Mode:           o.settings.Mode,
	})
	if err != nil {
		metrics.GenerationSubmitTotal.WithLabelValues(string(typ), "error").Inc()
		return SubmitResult{}, &UpstreamError{Stage: "submit", Err: err}
	}
	if taskID == "" {
		metrics.GenerationSubmitTotal.WithLabelValues(string(typ), "error").Inc()
		return SubmitResult{}, &UpstreamError{Stage: "submit", Err: fmt.Errorf("provider returned no task id")}
	}
	metrics.GenerationSubmitTotal.WithLabelValues(string(typ), "ok").Inc()
	log.Info("generation submitted", zap.String("task_id", taskID))
	return SubmitResult{TaskID: taskID, Status: string(StatusProcessing)}, nil
}

// PollResult is the normalized status of a provider task. ModelURL is only
// set when Status is SUCCEEDED and the provider returned a GLB URL.
type PollResult struct {
	TaskID         string `json:"task_id"`
	Status         Status `json:"status"`
	ProviderStatus string `json:"provider_status,omitempty"`
	Progress       int    `json:"progress"`
	ModelURL       string `json:"model_url,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Poll queries the provider once.
func (o *Orchestrator) Poll(ctx context.Context, taskID string) (PollResult, error) {
	if taskID == "" {
		return PollResult{}, ErrEmptyTaskID
	}
	if o.provider == nil {
		return PollResult{}, fmt.Errorf("asset provider: %w", ErrNotConfigured)
	}
	ts, err := o.provider.GetTextTo3D(ctx, taskID)
	if err != nil {
		return PollResult{}, &UpstreamError{Stage: "poll", Err: err}
	}

	res := PollResult{
		TaskID:         taskID,
		Status:         normalizeStatus(ts.Status),
		ProviderStatus: ts.Status,
		Progress:       ts.Progress,
	}
	switch res.Status {
	case StatusSucceeded:
		res.ModelURL = ts.ModelURL
		res.Progress = 100
	case StatusFailed:
		res.Error = ts.Error
	}
	metrics.GenerationPollTotal.WithLabelValues(string(res.Status)).Inc()
	logger.FromContext(ctx).Debug("generation polled",
		zap.String("task_id", taskID),
		zap.String("status", string(res.Status)),
		zap.Int("progress", res.Progress),
	)
	return res, nil
}

func normalizeStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCEEDED":
		return StatusSucceeded
	case "FAILED", "EXPIRED", "CANCELED", "CANCELLED":
		return StatusFailed
	default:
		return StatusProcessing
	}
}

// Outcome is the terminal result of one AwaitCompletion call.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeTimeout   Outcome = "timeout"
)

// Completion is returned by AwaitCompletion. A timeout is not an error; the
// task keeps running and may be polled again later.
type Completion struct {
	TaskID   string  `json:"task_id"`
	Outcome  Outcome `json:"outcome"`
	ModelURL string  `json:"model_url,omitempty"`
	Progress int     `json:"progress"`
}

// AwaitCompletion polls on a constant interval until the task succeeds,
// fails, or maxWait elapses. A non-positive maxWait means DefaultMaxWait.
// FAILED is reported as *GenerationFailure.
func (o *Orchestrator) AwaitCompletion(ctx context.Context, taskID string, maxWait time.Duration) (Completion, error) {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	// Each poll shares the wait deadline, so a slow provider cannot stretch
	// the wait past maxWait.
	waitCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()
	ticker := time.NewTicker(o.settings.PollInterval)
	defer ticker.Stop()

	progress := 0
	timedOut := func() (Completion, error) {
		if err := ctx.Err(); err != nil {
			return Completion{}, err
		}
		logger.FromContext(ctx).Info("generation wait timed out",
			zap.String("task_id", taskID),
			zap.Duration("max_wait", maxWait),
			zap.Int("progress", progress),
		)
		return Completion{TaskID: taskID, Outcome: OutcomeTimeout, Progress: progress}, nil
	}

	for {
		res, err := o.Poll(waitCtx, taskID)
		if err != nil {
			if waitCtx.Err() != nil {
				return timedOut()
			}
			return Completion{}, err
		}
		progress = res.Progress
		switch res.Status {
		case StatusSucceeded:
			return Completion{TaskID: taskID, Outcome: OutcomeSucceeded, ModelURL: res.ModelURL, Progress: res.Progress}, nil
		case StatusFailed:
			return Completion{}, &GenerationFailure{TaskID: taskID, Detail: res.Error}
		}

		select {
		case <-waitCtx.Done():
			return timedOut()
		case <-ticker.C:
		}
	}
}

// PollUpdate is one observation sent by Watch.
type PollUpdate struct {
	Result PollResult
	Err    error
}

// Watch polls taskID every interval and streams the results. The channel is
// closed after a terminal status, after an error, or when ctx is done. The
// caller owns cancellation; there is no built-in deadline.
func (o *Orchestrator) Watch(ctx context.Context, taskID string, interval time.Duration) <-chan PollUpdate {
	if interval <= 0 {
		interval = o.settings.PollInterval
	}
	out := make(chan PollUpdate, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			res, err := o.Poll(ctx, taskID)
			select {
			case out <- PollUpdate{Result: res, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil || res.Status.Terminal() {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}
