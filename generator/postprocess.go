package generator

import (
	"errors"
	"strings"
)

var errEmptyCompletion = errors.New("model returned an empty prompt")

// cleanRefinedPrompt trims the model answer, which is otherwise used verbatim.
func cleanRefinedPrompt(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", errEmptyCompletion
	}
	return p, nil
}
