// Package ai holds the advisory anomaly verifier. It assists a human
// operator with a short diagnosis; it never acts on its own, and its
// failures must never look like detection results.
package ai

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// Verdict is a classifier's parsed judgment on an anomaly
type Verdict struct {
	Analysis        string  `json:"analysis"`
	Confidence      float64 `json:"confidence"`
	SuggestedAction string  `json:"suggestedAction,omitempty"`
}

// Classifier produces a verdict for a diagnostic prompt. Implementations
// wrap one concrete model; escalation composes two of them.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (Verdict, error)
}

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseVerdict parses model output as strict JSON, falling back to JSON
// embedded in a markdown fence. When neither parses, the raw text
// becomes the analysis with a neutral 0.5 confidence. The verifier
// degrades, it does not throw past this point.
func parseVerdict(content string) Verdict {
	trimmed := strings.TrimSpace(content)

	var verdict Verdict
	if err := json.Unmarshal([]byte(trimmed), &verdict); err == nil {
		verdict.Confidence = clampConfidence(verdict.Confidence)
		return verdict
	}

	if match := fencedJSONPattern.FindStringSubmatch(trimmed); match != nil {
		if err := json.Unmarshal([]byte(match[1]), &verdict); err == nil {
			verdict.Confidence = clampConfidence(verdict.Confidence)
			return verdict
		}
	}

	return Verdict{
		Analysis:   trimmed,
		Confidence: 0.5,
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
