// Package animation asks a language model for Three.js skeletal animation
// code and screens the answer before it is sent to the browser.
package animation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"osce_webxr_api/generator"
	"osce_webxr_api/pkg/logger"
)

const (
	temperature = 0.7
	maxTokens   = 500
)

const systemPrompt = `You are a Three.js animation expert specializing in skeletal animation.

Given a bone hierarchy from a GLB model, generate executable Three.js code that animates the character based on the user's description.

Requirements:
1. Return ONLY executable JavaScript code, no markdown, no explanations
2. Use skeleton.getBoneByName('BoneName') to access bones
3. Use realistic human joint rotation limits (typically ±45-90 degrees for most joints)
4. For smooth animations, use THREE.AnimationClip or keyframe tracks
5. Return code that can be executed with: new Function('skeleton', 'THREE', code)(skeleton, THREE)
6. If the animation should loop or have duration, include that in the code
7. Use radians for rotations (Math.PI / 2 = 90 degrees)
8. Consider the bone hierarchy - child bones inherit parent transformations

Generate code that is safe, realistic, and follows Three.js best practices.`

// Bone is one joint of the model's skeleton as reported by the browser.
type Bone struct {
	Name     string    `json:"name"`
	Parent   *string   `json:"parent"`
	Position []float64 `json:"position,omitempty"`
	Rotation []float64 `json:"rotation,omitempty"`
}

// Result is the generated animation code.
type Result struct {
	Code   string `json:"code"`
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

// Generator produces animation code from a bone list and a description.
type Generator struct {
	llm   generator.TextCompletionClient
	model string
}

// NewGenerator creates a Generator. model may be empty to use the client's
// default model.
func NewGenerator(llm generator.TextCompletionClient, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

// Generate asks the model for code animating bones as described by prompt.
func (g *Generator) Generate(ctx context.Context, bones []Bone, prompt string) (Result, error) {
	if g.llm == nil {
		return Result{}, fmt.Errorf("animation: %w", generator.ErrNotConfigured)
	}
	if strings.TrimSpace(prompt) == "" {
		return Result{}, generator.ErrEmptyPrompt
	}
	if len(bones) == 0 {
		return Result{}, errors.New("bone structure is required")
	}

	hierarchy, err := json.MarshalIndent(bones, "", "  ")
	if err != nil {
		return Result{}, err
	}
	user := fmt.Sprintf("Bone hierarchy:\n%s\n\nGenerate Three.js code to make this character: %q\n\nReturn only the executable JavaScript code.", hierarchy, prompt)

	raw, err := g.llm.Complete(ctx, generator.Prompt{
		Purpose:     "animation",
		Model:       g.model,
		System:      systemPrompt,
		User:        user,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return Result{}, &generator.UpstreamError{Stage: "animation", Err: err}
	}
	code := extractCode(raw)
	if code == "" {
		return Result{}, &generator.UpstreamError{Stage: "animation", Err: errors.New("model returned no code")}
	}
	logger.FromContext(ctx).Info("animation generated", zap.Int("bones", len(bones)), zap.Int("code_chars", len(code)))
	return Result{Code: code, Model: g.model, Prompt: prompt}, nil
}
