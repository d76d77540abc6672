package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"osce_webxr_api/pkg/logger"
)

// Refiner turns user feedback into an improved generation prompt.
type Refiner struct {
	llm TextCompletionClient
}

// NewRefiner creates a Refiner. A nil llm selects the local fallback that
// appends the feedback to the current prompt.
func NewRefiner(llm TextCompletionClient) *Refiner {
	return &Refiner{llm: llm}
}

// Degraded reports whether refinement runs without a completion client.
func (r *Refiner) Degraded() bool {
	return r.llm == nil
}

// Refine returns the prompt to generate from and the updated history.
// Without feedback the current prompt (or the original one) is returned and
// the history is left untouched. The returned history never shares its
// backing array with the argument. A history whose iterations are not 1..n
// fails with ErrInvalidHistory.
func (r *Refiner) Refine(ctx context.Context, original, current, feedback string, history []RefinementRecord) (string, []RefinementRecord, error) {
	base := current
	if base == "" {
		base = original
	}
	if strings.TrimSpace(base) == "" {
		return "", history, ErrEmptyPrompt
	}
	if err := checkHistory(history); err != nil {
		return "", history, err
	}

	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return base, history, nil
	}

	log := logger.FromContext(ctx)
	var refined string
	if r.llm == nil {
		refined = fallbackRefinement(base, feedback)
		log.Debug("refine without completion client", zap.Int("iteration", len(history)+1))
	} else {
		raw, err := r.llm.Complete(ctx, BuildRefinementPrompt(original, base, feedback))
		if err != nil {
			return "", history, &UpstreamError{Stage: "refine", Err: err}
		}
		refined, err = cleanRefinedPrompt(raw)
		if err != nil {
			return "", history, &UpstreamError{Stage: "refine", Err: err}
		}
		log.Info("prompt refined", zap.Int("iteration", len(history)+1), zap.Int("chars", len(refined)))
	}

	next := make([]RefinementRecord, len(history), len(history)+1)
	copy(next, history)
	next = append(next, RefinementRecord{
		Prompt:    refined,
		Feedback:  feedback,
		Iteration: len(history) + 1,
	})
	return refined, next, nil
}

// checkHistory requires record i to carry iteration i+1.
func checkHistory(history []RefinementRecord) error {
	for i, rec := range history {
		if rec.Iteration != i+1 {
			return fmt.Errorf("%w: record %d has iteration %d", ErrInvalidHistory, i, rec.Iteration)
		}
	}
	return nil
}
