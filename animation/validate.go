package animation

import (
	"fmt"
	"strings"
)

// Validation is the outcome of screening generated code.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

var dangerousPatterns = []string{
	"eval(",
	"Function(",
	"require(",
	"import(",
	"fetch(",
	"XMLHttpRequest",
	"document.",
	"window.",
	"process.",
}

// Validate rejects code that reaches outside the skeleton it is given. It is
// a substring screen, not a sandbox.
func Validate(code string) Validation {
	if strings.TrimSpace(code) == "" {
		return Validation{Valid: false, Reason: "Code is empty"}
	}
	for _, p := range dangerousPatterns {
		if strings.Contains(code, p) {
			return Validation{Valid: false, Reason: fmt.Sprintf("Potentially unsafe pattern detected: %s", p)}
		}
	}
	if !strings.Contains(code, "skeleton") && !strings.Contains(code, "getBoneByName") {
		return Validation{Valid: false, Reason: "Code must use skeleton.getBoneByName() to access bones"}
	}
	return Validation{Valid: true, Reason: "Code appears safe"}
}
