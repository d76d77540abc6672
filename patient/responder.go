package patient

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"osce_webxr_api/generator"
	"osce_webxr_api/pkg/logger"
)

const (
	DefaultCharacterPrompt = "65-year-old patient, anxious, pain level 7, sarcastic personality"

	chatTemperature = 0.7
	chatMaxTokens   = 150
	fallbackReply   = "I'm listening, doctor. Please continue."
)

// Turn is one doctor utterance plus the context the caller carries.
type Turn struct {
	Message         string
	CharacterPrompt string
	ReactionRules   string
	State           *State
}

// Reply is the patient's answer and the state after the turn.
type Reply struct {
	Message string `json:"message"`
	Emotion string `json:"emotion"`
	State   State  `json:"character_state"`
}

// Responder answers as the patient. Without a completion client it uses a
// few canned replies.
type Responder struct {
	llm generator.TextCompletionClient
}

func NewResponder(llm generator.TextCompletionClient) *Responder {
	return &Responder{llm: llm}
}

// Reply produces the patient's answer from the state before the turn, then
// applies the turn's effect on the state.
func (r *Responder) Reply(ctx context.Context, t Turn) (Reply, error) {
	state := DefaultState()
	if t.State != nil {
		state = t.State.Normalize()
	}

	var text string
	if r.llm == nil {
		text = ruleReply(t.Message, state)
	} else {
		raw, err := r.llm.Complete(ctx, buildPersonaPrompt(t, state))
		if err != nil {
			return Reply{}, &generator.UpstreamError{Stage: "chat", Err: err}
		}
		text = strings.TrimSpace(raw)
		if text == "" {
			logger.FromContext(ctx).Warn("empty patient reply from model")
			text = fallbackReply
		}
	}

	next := state.React(t.Message)
	logger.FromContext(ctx).Debug("patient replied",
		zap.Int("anxiety", next.AnxietyLevel),
		zap.Int("trust", next.TrustLevel),
	)
	return Reply{Message: text, Emotion: next.Emotion(), State: next}, nil
}

func buildPersonaPrompt(t Turn, s State) generator.Prompt {
	character := t.CharacterPrompt
	if strings.TrimSpace(character) == "" {
		character = DefaultCharacterPrompt
	}
	rules := t.ReactionRules
	if strings.TrimSpace(rules) == "" {
		rules = "Respond naturally based on your character description."
	}

	var sb strings.Builder
	sb.WriteString("You are a patient in a medical examination scenario.\n\n")
	sb.WriteString(fmt.Sprintf("Character Description: %s\n\n", character))
	sb.WriteString("Current State:\n")
	sb.WriteString(fmt.Sprintf("- Anxiety Level: %d/10\n", s.AnxietyLevel))
	sb.WriteString(fmt.Sprintf("- Trust Level: %d/10\n", s.TrustLevel))
	sb.WriteString(fmt.Sprintf("- Pain Level: %d/10\n\n", s.PainLevel))
	sb.WriteString(fmt.Sprintf("Reaction Rules:\n%s\n\n", rules))
	sb.WriteString(fmt.Sprintf("The doctor just said: %q\n\n", t.Message))
	sb.WriteString("Respond as this patient would, considering your current emotional state and the reaction rules.\n")
	sb.WriteString("Keep responses concise (1-2 sentences).")

	return generator.Prompt{
		Purpose:     "chat",
		System:      sb.String(),
		User:        t.Message,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	}
}

func ruleReply(message string, s State) string {
	m := strings.ToLower(message)
	switch {
	case hasWord(m, "hello", "hi", "hey"):
		return "Hello, doctor. I'm feeling quite anxious about this examination."
	case containsAny(m, "how are you", "how do you feel"):
		return fmt.Sprintf("I'm in pain, level %d out of 10. And I'm worried.", s.PainLevel)
	case containsAny(m, "nervous", "anxious"):
		return "Yes, I can see you're nervous. That makes me even more anxious. Are you sure you know what you're doing?"
	default:
		return fallbackReply
	}
}

// hasWord matches whole words so that "this" does not count as "hi".
func hasWord(s string, words ...string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
