package generator

import (
	"fmt"
	"strings"
)

// RefinementRecord is one entry of a session's refinement history.
type RefinementRecord struct {
	Prompt    string `json:"prompt"`
	Feedback  string `json:"feedback"`
	Iteration int    `json:"iteration"`
}

// GenerationType selects which kind of asset a session produces.
type GenerationType string

const (
	Character GenerationType = "CHARACTER"
	Scene     GenerationType = "SCENE"
)

// ParseGenerationType accepts "character" or "scene" in any case.
// An empty value means Character.
func ParseGenerationType(s string) (GenerationType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(Character):
		return Character, nil
	case string(Scene):
		return Scene, nil
	default:
		return "", fmt.Errorf("unknown generation type %q", s)
	}
}

// Status is the lifecycle state of a generation session.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusProcessing Status = "PROCESSING"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}
