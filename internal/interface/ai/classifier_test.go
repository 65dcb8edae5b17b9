package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdictStrictJSON(t *testing.T) {
	verdict := parseVerdict(`{"analysis": "holiday closure", "confidence": 0.92, "suggestedAction": "none"}`)

	assert.Equal(t, "holiday closure", verdict.Analysis)
	assert.InDelta(t, 0.92, verdict.Confidence, 0.001)
	assert.Equal(t, "none", verdict.SuggestedAction)
}

func TestParseVerdictMarkdownFence(t *testing.T) {
	content := "Here is my assessment:\n```json\n{\"analysis\": \"scraper defect\", \"confidence\": 0.8}\n```\nLet me know if you need more."

	verdict := parseVerdict(content)
	assert.Equal(t, "scraper defect", verdict.Analysis)
	assert.InDelta(t, 0.8, verdict.Confidence, 0.001)
}

func TestParseVerdictBareFence(t *testing.T) {
	verdict := parseVerdict("```\n{\"analysis\": \"ok\", \"confidence\": 0.6}\n```")
	assert.Equal(t, "ok", verdict.Analysis)
	assert.InDelta(t, 0.6, verdict.Confidence, 0.001)
}

func TestParseVerdictUnparsableFallsBackToRawText(t *testing.T) {
	verdict := parseVerdict("The cinema is probably closed for Christmas.")

	assert.Equal(t, "The cinema is probably closed for Christmas.", verdict.Analysis)
	assert.InDelta(t, 0.5, verdict.Confidence, 0.001)
	assert.Empty(t, verdict.SuggestedAction)
}

func TestParseVerdictClampsConfidence(t *testing.T) {
	high := parseVerdict(`{"analysis": "x", "confidence": 3.2}`)
	assert.InDelta(t, 1.0, high.Confidence, 0.001)

	low := parseVerdict(`{"analysis": "x", "confidence": -0.4}`)
	assert.InDelta(t, 0.0, low.Confidence, 0.001)
}
