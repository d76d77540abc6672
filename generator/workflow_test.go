package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkflow(t *testing.T, llm TextCompletionClient, p AssetGenerationClient) *Workflow {
	t.Helper()
	w, err := NewWorkflow(NewRefiner(llm), fastOrchestrator(p))
	require.NoError(t, err)
	return w
}

func TestProcessWithoutFeedback(t *testing.T) {
	p := &fakeProvider{taskID: "T1"}
	w := newTestWorkflow(t, &fakeLLM{answer: "unused"}, p)

	resp, s, err := w.Process(context.Background(), GenerationRequest{OriginalPrompt: "a knight"})
	require.NoError(t, err)
	assert.Equal(t, GenerationResponse{
		RefinedPrompt: "a knight",
		TaskID:        "T1",
		Status:        "processing",
		History:       []RefinementRecord{},
	}, resp)
	assert.Equal(t, StatusProcessing, s.Status)
	assert.Equal(t, Character, s.Type)
	assert.Equal(t, "a knight", p.submitted[0].Prompt)
}

func TestProcessRefinesThenSubmits(t *testing.T) {
	p := &fakeProvider{taskID: "T2"}
	w := newTestWorkflow(t, nil, p)

	resp, _, err := w.Process(context.Background(), GenerationRequest{
		OriginalPrompt: "A cat",
		Feedback:       "bigger",
		Type:           Character,
	})
	require.NoError(t, err)
	assert.Equal(t, "A cat. bigger", resp.RefinedPrompt)
	assert.Equal(t, []RefinementRecord{{Prompt: "A cat. bigger", Feedback: "bigger", Iteration: 1}}, resp.History)
	assert.Equal(t, "A cat. bigger", p.submitted[0].Prompt)
}

func TestProcessSceneReturnsStub(t *testing.T) {
	p := &fakeProvider{taskID: "T1"}
	w := newTestWorkflow(t, nil, p)

	resp, s, err := w.Process(context.Background(), GenerationRequest{OriginalPrompt: "a clinic room", Type: Scene})
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	assert.Empty(t, resp.TaskID)
	assert.Equal(t, SceneNotImplementedMessage, resp.Message)
	assert.Equal(t, StatusNotStarted, s.Status)
	assert.Zero(t, p.submitCount())
}

func TestProcessRefineFailureSkipsSubmit(t *testing.T) {
	p := &fakeProvider{taskID: "T1"}
	w := newTestWorkflow(t, &fakeLLM{err: errors.New("down")}, p)

	_, _, err := w.Process(context.Background(), GenerationRequest{OriginalPrompt: "a knight", Feedback: "taller"})
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "refine", up.Stage)
	assert.Contains(t, err.Error(), "refine stage")
	assert.Zero(t, p.submitCount())
}

func TestProcessWithoutProvider(t *testing.T) {
	w := newTestWorkflow(t, nil, nil)
	_, s, err := w.Process(context.Background(), GenerationRequest{OriginalPrompt: "a knight"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, err.Error(), "submit stage")
	assert.Equal(t, StatusNotStarted, s.Status)
}

func TestProcessEmptyPrompt(t *testing.T) {
	w := newTestWorkflow(t, nil, &fakeProvider{taskID: "T1"})
	_, _, err := w.Process(context.Background(), GenerationRequest{OriginalPrompt: " "})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestProcessRejectsOutOfSequenceHistory(t *testing.T) {
	p := &fakeProvider{taskID: "T1"}
	w := newTestWorkflow(t, nil, p)

	_, _, err := w.Process(context.Background(), GenerationRequest{
		OriginalPrompt: "a knight",
		Feedback:       "taller",
		History:        []RefinementRecord{{Prompt: "a knight", Feedback: "older", Iteration: 7}},
	})
	assert.ErrorIs(t, err, ErrInvalidHistory)
	assert.Zero(t, p.submitCount())
}
