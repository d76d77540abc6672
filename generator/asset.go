package generator

import "context"

// TextTo3DRequest is the payload submitted to a text-to-3D provider.
type TextTo3DRequest struct {
	Prompt         string
	ArtStyle       string
	NegativePrompt string
	Mode           string
}

// TaskStatus is the provider's raw view of a task. Fields the provider did
// not send are left zero.
type TaskStatus struct {
	Status   string
	Progress int
	ModelURL string
	Error    string
}

// AssetGenerationClient is the text-to-3D capability driven by Orchestrator.
type AssetGenerationClient interface {
	CreateTextTo3D(ctx context.Context, req TextTo3DRequest) (string, error)
	GetTextTo3D(ctx context.Context, taskID string) (TaskStatus, error)
}
