package generator

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"osce_webxr_api/pkg/logger"
	"osce_webxr_api/pkg/metrics"
)

// OpenAICompletion implements TextCompletionClient with the openai-go SDK.
// OpenRouter is reached through the same chat completions API.
type OpenAICompletion struct {
	Model  string
	client openai.Client
}

func NewOpenAICompletion(cfg *LLMSettings) (*OpenAICompletion, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.Referer))
	}
	if cfg.Title != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.Title))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &OpenAICompletion{Model: cfg.Model, client: openai.NewClient(opts...)}, nil
}

func (o *OpenAICompletion) Complete(ctx context.Context, prompt Prompt) (string, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{}
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	model := o.Model
	if prompt.Model != "" {
		model = prompt.Model
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: msgs,
	}
	if prompt.Temperature > 0 {
		params.Temperature = openai.Float(prompt.Temperature)
	}
	if prompt.MaxTokens > 0 {
		params.MaxTokens = openai.Int(prompt.MaxTokens)
	}

	purpose := prompt.Purpose
	if purpose == "" {
		purpose = "unknown"
	}
	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	metrics.LLMCallDuration.WithLabelValues(purpose).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(purpose, "error").Inc()
		logger.FromContext(ctx).Error("completion failed", zap.String("purpose", purpose), zap.String("model", model), zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		metrics.LLMCallTotal.WithLabelValues(purpose, "empty").Inc()
		return "", errors.New("openai: empty choices")
	}
	metrics.LLMCallTotal.WithLabelValues(purpose, "ok").Inc()
	logger.FromContext(ctx).Debug("completion done",
		zap.String("purpose", purpose),
		zap.String("model", model),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("took", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}
