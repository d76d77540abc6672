package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefineWithoutFeedbackKeepsPrompt(t *testing.T) {
	llm := &fakeLLM{answer: "should not be used"}
	r := NewRefiner(llm)
	history := []RefinementRecord{{Prompt: "p1", Feedback: "f1", Iteration: 1}}

	got, next, err := r.Refine(context.Background(), "a knight", "a tall knight", "   ", history)
	require.NoError(t, err)
	assert.Equal(t, "a tall knight", got)
	assert.Equal(t, history, next)
	assert.Zero(t, llm.calls())

	got, _, err = r.Refine(context.Background(), "a knight", "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "a knight", got)
}

func TestRefineAppendsHistory(t *testing.T) {
	llm := &fakeLLM{answer: "  a knight in silver armor, studio lighting \n"}
	r := NewRefiner(llm)
	history := []RefinementRecord{
		{Prompt: "a knight", Feedback: "taller", Iteration: 1},
		{Prompt: "a tall knight", Feedback: "older", Iteration: 2},
	}

	got, next, err := r.Refine(context.Background(), "a knight", "an old tall knight", "silver armor", history)
	require.NoError(t, err)
	assert.Equal(t, "a knight in silver armor, studio lighting", got)
	require.Len(t, next, 3)
	assert.Equal(t, RefinementRecord{Prompt: got, Feedback: "silver armor", Iteration: 3}, next[2])
	assert.Len(t, history, 2)

	require.Equal(t, 1, llm.calls())
	p := llm.prompts[0]
	assert.Equal(t, "refine", p.Purpose)
	assert.Equal(t, RefineTemperature, p.Temperature)
	assert.EqualValues(t, RefineMaxTokens, p.MaxTokens)
	assert.Contains(t, p.User, "Original prompt: a knight")
	assert.Contains(t, p.User, "Current prompt: an old tall knight")
	assert.Contains(t, p.User, "User feedback: silver armor")
}

func TestRefineDoesNotAliasHistory(t *testing.T) {
	r := NewRefiner(nil)
	history := make([]RefinementRecord, 1, 8)
	history[0] = RefinementRecord{Prompt: "x", Feedback: "y", Iteration: 1}

	_, next, err := r.Refine(context.Background(), "A cat", "", "bigger", history)
	require.NoError(t, err)
	next[0].Prompt = "changed"
	assert.Equal(t, "x", history[0].Prompt)
	// spare capacity in the caller's slice must stay untouched
	assert.Empty(t, history[:2][1].Prompt)
}

func TestRefineFallback(t *testing.T) {
	r := NewRefiner(nil)
	assert.True(t, r.Degraded())

	got, next, err := r.Refine(context.Background(), "A cat", "", "bigger", nil)
	require.NoError(t, err)
	assert.Equal(t, "A cat. bigger", got)
	assert.Equal(t, []RefinementRecord{{Prompt: "A cat. bigger", Feedback: "bigger", Iteration: 1}}, next)
}

func TestRefineUpstreamError(t *testing.T) {
	boom := errors.New("rate limited")
	r := NewRefiner(&fakeLLM{err: boom})
	history := []RefinementRecord{{Prompt: "p", Feedback: "f", Iteration: 1}}

	_, next, err := r.Refine(context.Background(), "a knight", "", "taller", history)
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "refine", up.Stage)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, history, next)
}

func TestRefineBlankAnswerIsError(t *testing.T) {
	r := NewRefiner(&fakeLLM{answer: " \n "})
	_, _, err := r.Refine(context.Background(), "a knight", "", "taller", nil)
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.ErrorIs(t, err, errEmptyCompletion)
}

func TestRefineEmptyPrompt(t *testing.T) {
	_, _, err := NewRefiner(nil).Refine(context.Background(), " ", "", "bigger", nil)
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestRefineRejectsOutOfSequenceHistory(t *testing.T) {
	llm := &fakeLLM{answer: "unused"}
	r := NewRefiner(llm)
	for name, history := range map[string][]RefinementRecord{
		"starts late": {{Prompt: "p", Feedback: "f", Iteration: 7}},
		"gap":         {{Iteration: 1}, {Iteration: 3}},
		"repeated":    {{Iteration: 1}, {Iteration: 1}},
		"zero":        {{Iteration: 0}},
	} {
		t.Run(name, func(t *testing.T) {
			_, next, err := r.Refine(context.Background(), "a knight", "", "taller", history)
			assert.ErrorIs(t, err, ErrInvalidHistory)
			assert.Equal(t, history, next)

			_, _, err = r.Refine(context.Background(), "a knight", "", "", history)
			assert.ErrorIs(t, err, ErrInvalidHistory)
		})
	}
	assert.Zero(t, llm.calls())
}
