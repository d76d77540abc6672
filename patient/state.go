// Package patient implements the virtual patient's conversation and its
// small emotional state.
package patient

import "strings"

const (
	minLevel = 0
	maxLevel = 10
)

// State is the patient's emotional state. The caller sends it with every
// chat turn and stores the updated copy from the reply.
type State struct {
	AnxietyLevel int    `json:"anxiety_level"`
	TrustLevel   int    `json:"trust_level"`
	PainLevel    int    `json:"pain_level"`
	Personality  string `json:"personality,omitempty"`
}

// DefaultState is the state of a freshly started examination.
func DefaultState() State {
	return State{
		AnxietyLevel: 5,
		TrustLevel:   5,
		PainLevel:    7,
		Personality:  "anxious, sarcastic",
	}
}

// Emotion is "anxious" above the midpoint of the anxiety scale, else "calm".
func (s State) Emotion() string {
	if s.AnxietyLevel > 5 {
		return "anxious"
	}
	return "calm"
}

// React returns the state after the doctor said message. Nervous doctors make
// the patient more anxious and less trusting; calm ones do the opposite.
func (s State) React(message string) State {
	m := strings.ToLower(message)
	switch {
	case containsAny(m, "nervous", "anxious"):
		s.AnxietyLevel = clamp(s.AnxietyLevel + 1)
		s.TrustLevel = clamp(s.TrustLevel - 1)
	case containsAny(m, "calm", "confident", "reassuring"):
		s.AnxietyLevel = clamp(s.AnxietyLevel - 1)
		s.TrustLevel = clamp(s.TrustLevel + 1)
	}
	return s
}

// Normalize clamps all levels into range.
func (s State) Normalize() State {
	s.AnxietyLevel = clamp(s.AnxietyLevel)
	s.TrustLevel = clamp(s.TrustLevel)
	s.PainLevel = clamp(s.PainLevel)
	return s
}

func clamp(v int) int {
	if v < minLevel {
		return minLevel
	}
	if v > maxLevel {
		return maxLevel
	}
	return v
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
