package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOrchestrator(p AssetGenerationClient) *Orchestrator {
	return NewOrchestrator(p, OrchestratorSettings{PollInterval: 10 * time.Millisecond})
}

func TestSubmitCharacter(t *testing.T) {
	p := &fakeProvider{taskID: "T1"}
	res, err := fastOrchestrator(p).Submit(context.Background(), "a knight", Character)
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{TaskID: "T1", Status: "PROCESSING"}, res)

	require.Equal(t, 1, p.submitCount())
	assert.Equal(t, TextTo3DRequest{
		Prompt:         "a knight",
		ArtStyle:       DefaultArtStyle,
		NegativePrompt: DefaultNegativePrompt,
		Mode:           DefaultMode,
	}, p.submitted[0])
}

func TestSubmitSceneIsStub(t *testing.T) {
	p := &fakeProvider{taskID: "T1"}
	res, err := fastOrchestrator(p).Submit(context.Background(), "a clinic room", Scene)
	require.NoError(t, err)
	assert.True(t, res.Stub)
	assert.Empty(t, res.TaskID)
	assert.Equal(t, "PENDING", res.Status)
	assert.Equal(t, SceneNotImplementedMessage, res.Message)
	assert.Zero(t, p.submitCount())
}

func TestSubmitErrors(t *testing.T) {
	ctx := context.Background()

	_, err := fastOrchestrator(&fakeProvider{taskID: "T1"}).Submit(ctx, "  ", Character)
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = fastOrchestrator(nil).Submit(ctx, "a knight", Character)
	assert.ErrorIs(t, err, ErrNotConfigured)

	boom := errors.New("401 unauthorized")
	_, err = fastOrchestrator(&fakeProvider{submitErr: boom}).Submit(ctx, "a knight", Character)
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "submit", up.Stage)
	assert.ErrorIs(t, err, boom)

	_, err = fastOrchestrator(&fakeProvider{}).Submit(ctx, "a knight", Character)
	assert.ErrorAs(t, err, &up)

	_, err = fastOrchestrator(&fakeProvider{taskID: "T1"}).Submit(ctx, "a knight", GenerationType("PROP"))
	assert.Error(t, err)
}

func TestPollNormalizesStatus(t *testing.T) {
	cases := []struct {
		name string
		in   TaskStatus
		want PollResult
	}{
		{
			name: "succeeded",
			in:   TaskStatus{Status: "SUCCEEDED", Progress: 97, ModelURL: "https://x/m.glb"},
			want: PollResult{TaskID: "T1", Status: StatusSucceeded, ProviderStatus: "SUCCEEDED", Progress: 100, ModelURL: "https://x/m.glb"},
		},
		{
			name: "succeeded without url",
			in:   TaskStatus{Status: "SUCCEEDED"},
			want: PollResult{TaskID: "T1", Status: StatusSucceeded, ProviderStatus: "SUCCEEDED", Progress: 100},
		},
		{
			name: "in progress drops url",
			in:   TaskStatus{Status: "IN_PROGRESS", Progress: 40, ModelURL: "https://x/partial.glb"},
			want: PollResult{TaskID: "T1", Status: StatusProcessing, ProviderStatus: "IN_PROGRESS", Progress: 40},
		},
		{
			name: "pending",
			in:   TaskStatus{Status: "PENDING"},
			want: PollResult{TaskID: "T1", Status: StatusProcessing, ProviderStatus: "PENDING"},
		},
		{
			name: "failed",
			in:   TaskStatus{Status: "FAILED", Error: "bad mesh"},
			want: PollResult{TaskID: "T1", Status: StatusFailed, ProviderStatus: "FAILED", Error: "bad mesh"},
		},
		{
			name: "expired",
			in:   TaskStatus{Status: "EXPIRED"},
			want: PollResult{TaskID: "T1", Status: StatusFailed, ProviderStatus: "EXPIRED"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakeProvider{statuses: []TaskStatus{tc.in}}
			got, err := fastOrchestrator(p).Poll(context.Background(), "T1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPollErrors(t *testing.T) {
	ctx := context.Background()
	_, err := fastOrchestrator(&fakeProvider{}).Poll(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyTaskID)

	_, err = fastOrchestrator(nil).Poll(ctx, "T1")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = fastOrchestrator(&fakeProvider{pollErr: errors.New("503")}).Poll(ctx, "T1")
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "poll", up.Stage)
}

func TestAwaitCompletionSucceeds(t *testing.T) {
	p := &fakeProvider{statuses: []TaskStatus{
		{Status: "PENDING"},
		{Status: "IN_PROGRESS", Progress: 50},
		{Status: "SUCCEEDED", ModelURL: "https://x/m.glb"},
	}}
	got, err := fastOrchestrator(p).AwaitCompletion(context.Background(), "T1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, Completion{TaskID: "T1", Outcome: OutcomeSucceeded, ModelURL: "https://x/m.glb", Progress: 100}, got)
	assert.Equal(t, 3, p.pollCount())
}

func TestAwaitCompletionTimesOut(t *testing.T) {
	p := &fakeProvider{statuses: []TaskStatus{{Status: "IN_PROGRESS", Progress: 30}}}
	start := time.Now()
	got, err := fastOrchestrator(p).AwaitCompletion(context.Background(), "T1", 60*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, got.Outcome)
	assert.Equal(t, 30, got.Progress)
	assert.Empty(t, got.ModelURL)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwaitCompletionTimesOutDuringSlowPoll(t *testing.T) {
	p := &fakeProvider{delay: 5 * time.Second, statuses: []TaskStatus{{Status: "SUCCEEDED"}}}
	start := time.Now()
	got, err := fastOrchestrator(p).AwaitCompletion(context.Background(), "T1", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, got.Outcome)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwaitCompletionFailure(t *testing.T) {
	p := &fakeProvider{statuses: []TaskStatus{{Status: "FAILED", Error: "bad mesh"}}}
	_, err := fastOrchestrator(p).AwaitCompletion(context.Background(), "T1", time.Second)
	var failure *GenerationFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "T1", failure.TaskID)
	assert.Equal(t, "bad mesh", failure.Detail)
	assert.Equal(t, "generation T1 failed: bad mesh", err.Error())
}

func TestAwaitCompletionHonorsContext(t *testing.T) {
	p := &fakeProvider{statuses: []TaskStatus{{Status: "IN_PROGRESS"}}}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := fastOrchestrator(p).AwaitCompletion(ctx, "T1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatchStreamsUntilTerminal(t *testing.T) {
	p := &fakeProvider{statuses: []TaskStatus{
		{Status: "IN_PROGRESS", Progress: 10},
		{Status: "IN_PROGRESS", Progress: 60},
		{Status: "SUCCEEDED", ModelURL: "https://x/m.glb"},
	}}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var got []PollUpdate
	for u := range fastOrchestrator(p).Watch(ctx, "T1", 0) {
		got = append(got, u)
	}
	require.Len(t, got, 3)
	assert.Equal(t, 10, got[0].Result.Progress)
	assert.Equal(t, 60, got[1].Result.Progress)
	assert.Equal(t, StatusSucceeded, got[2].Result.Status)
	assert.Equal(t, "https://x/m.glb", got[2].Result.ModelURL)
}

func TestWatchStopsOnError(t *testing.T) {
	p := &fakeProvider{pollErr: errors.New("boom")}
	var got []PollUpdate
	for u := range fastOrchestrator(p).Watch(context.Background(), "T1", 0) {
		got = append(got, u)
	}
	require.Len(t, got, 1)
	assert.Error(t, got[0].Err)
}
