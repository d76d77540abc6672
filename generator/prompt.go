package generator

import (
	"fmt"
	"strings"
)

const (
	// RefineTemperature and RefineMaxTokens are fixed for prompt refinement.
	RefineTemperature = 0.7
	RefineMaxTokens   = 300

	refineWordBudget = 200
)

// Prompt is one request to a TextCompletionClient. Purpose labels the call
// in logs and metrics; Model overrides the client's default model when set.
type Prompt struct {
	Purpose     string
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int64
}

// BuildRefinementPrompt asks the model for an improved 3D generation prompt
// that addresses feedback while keeping the original intent.
func BuildRefinementPrompt(original, current, feedback string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are helping refine a 3D character/scene generation prompt.\n\n")
	sb.WriteString(fmt.Sprintf("Original prompt: %s\n", original))
	sb.WriteString(fmt.Sprintf("Current prompt: %s\n", current))
	sb.WriteString(fmt.Sprintf("User feedback: %s\n\n", feedback))
	sb.WriteString("Generate an improved prompt that addresses the feedback while maintaining the core intent.\n")
	sb.WriteString("The prompt should be:\n")
	sb.WriteString("- Specific and detailed\n")
	sb.WriteString("- Include style, appearance, and pose/arrangement details\n")
	sb.WriteString("- Optimized for 3D generation (mention materials, lighting, composition)\n")
	sb.WriteString(fmt.Sprintf("- Keep it concise (under %d words)\n\n", refineWordBudget))
	sb.WriteString("Return only the improved prompt, no explanation.")

	return Prompt{
		Purpose:     "refine",
		System:      "You are a prompt engineering expert for 3D generation.",
		User:        sb.String(),
		Temperature: RefineTemperature,
		MaxTokens:   RefineMaxTokens,
	}
}

// fallbackRefinement is used when no completion client is configured.
func fallbackRefinement(current, feedback string) string {
	return fmt.Sprintf("%s. %s", current, feedback)
}
