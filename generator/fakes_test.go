package generator

import (
	"context"
	"sync"
	"time"
)

type fakeLLM struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []Prompt
}

func (f *fakeLLM) Complete(ctx context.Context, p Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	return f.answer, f.err
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// fakeProvider replays statuses in order and then repeats the last one.
type fakeProvider struct {
	mu        sync.Mutex
	taskID    string
	submitErr error
	statuses  []TaskStatus
	pollErr   error
	delay     time.Duration
	submitted []TextTo3DRequest
	polls     int
}

func (f *fakeProvider) CreateTextTo3D(ctx context.Context, req TextTo3DRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	return f.taskID, f.submitErr
}

func (f *fakeProvider) GetTextTo3D(ctx context.Context, taskID string) (TaskStatus, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(f.delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return TaskStatus{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.polls
	f.polls++
	if f.pollErr != nil {
		return TaskStatus{}, f.pollErr
	}
	if len(f.statuses) == 0 {
		return TaskStatus{Status: "IN_PROGRESS"}, nil
	}
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return f.statuses[i], nil
}

func (f *fakeProvider) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func (f *fakeProvider) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}
