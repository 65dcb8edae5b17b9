package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"screenwatch-service/pkg/logger"
	"screenwatch-service/pkg/metrics"
)

// Model tier tags on a verification result
const (
	ModelCheap  = "cheap"
	ModelStrong = "strong"
)

// AnomalyContext carries what the operator knows about the anomaly
type AnomalyContext struct {
	CinemaName    string
	CinemaSlug    string
	Chain         string
	Tier          string
	AnomalyType   string
	TodayCount    int
	LastWeekCount int
	Date          time.Time
}

// VerificationResult is the verifier's advisory diagnosis
type VerificationResult struct {
	Analysis        string
	Confidence      float64
	Model           string
	SuggestedAction string
}

// EscalatingVerifier calls a cheap model first and repeats the call on
// a stronger model only when the cheap one is unsure. The gate is a
// cost control: most anomalies have an obvious cause a cheap model
// states confidently; only the ambiguous ones pay for the strong model.
type EscalatingVerifier struct {
	cheap         Classifier
	strong        Classifier
	minConfidence float64
	metrics       *metrics.Metrics
	logger        logger.Logger
}

// NewEscalatingVerifier creates the two-tier verifier
func NewEscalatingVerifier(cheap, strong Classifier, minConfidence float64, metrics *metrics.Metrics, logger logger.Logger) *EscalatingVerifier {
	return &EscalatingVerifier{
		cheap:         cheap,
		strong:        strong,
		minConfidence: minConfidence,
		metrics:       metrics,
		logger:        logger,
	}
}

// Verify produces a diagnosis for an already-detected anomaly. A
// returned error means the verifier itself failed; callers must
// surface that separately from a low-confidence diagnosis and never
// treat it as a detection outcome.
func (v *EscalatingVerifier) Verify(ctx context.Context, anomaly AnomalyContext) (*VerificationResult, error) {
	prompt := buildPrompt(anomaly)

	verdict, err := v.cheap.Classify(ctx, prompt)
	if err != nil {
		v.logger.Error("Cheap model verification failed",
			"cinema", anomaly.CinemaSlug,
			"anomalyType", anomaly.AnomalyType,
			"error", err)
		return nil, fmt.Errorf("verification failed: %w", err)
	}
	v.countCall(ModelCheap)

	if verdict.Confidence >= v.minConfidence {
		return resultFrom(verdict, ModelCheap), nil
	}

	v.logger.Info("Escalating to strong model",
		"cinema", anomaly.CinemaSlug,
		"anomalyType", anomaly.AnomalyType,
		"cheapConfidence", verdict.Confidence)

	strongVerdict, err := v.strong.Classify(ctx, prompt)
	if err != nil {
		// The cheap diagnosis is still usable; keep it rather than
		// losing the advisory entirely
		v.logger.Error("Strong model verification failed, keeping cheap result",
			"cinema", anomaly.CinemaSlug,
			"error", err)
		return resultFrom(verdict, ModelCheap), nil
	}
	v.countCall(ModelStrong)

	return resultFrom(strongVerdict, ModelStrong), nil
}

func (v *EscalatingVerifier) countCall(model string) {
	if v.metrics != nil {
		v.metrics.VerifierCalls.WithLabelValues(model).Inc()
	}
}

func resultFrom(verdict Verdict, model string) *VerificationResult {
	return &VerificationResult{
		Analysis:        verdict.Analysis,
		Confidence:      verdict.Confidence,
		Model:           model,
		SuggestedAction: verdict.SuggestedAction,
	}
}

// buildPrompt lays out the anomaly context for the model
func buildPrompt(anomaly AnomalyContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A screening scraper produced an anomalous result.\n\n")
	fmt.Fprintf(&b, "Cinema: %s (%s)\n", anomaly.CinemaName, anomaly.CinemaSlug)
	if anomaly.Chain != "" {
		fmt.Fprintf(&b, "Chain: %s\n", anomaly.Chain)
	} else {
		fmt.Fprintf(&b, "Chain: independent\n")
	}
	fmt.Fprintf(&b, "Tier: %s\n", anomaly.Tier)
	fmt.Fprintf(&b, "Anomaly type: %s\n", anomaly.AnomalyType)
	fmt.Fprintf(&b, "Screenings found today: %d\n", anomaly.TodayCount)
	fmt.Fprintf(&b, "Screenings same weekday last week: %d\n", anomaly.LastWeekCount)
	fmt.Fprintf(&b, "Current date: %s\n\n", anomaly.Date.Format("Monday 2 January 2006"))
	fmt.Fprintf(&b, "Diagnose the most likely cause (holiday closure, site redesign, scraper defect, genuine schedule change) and respond as instructed.")

	return b.String()
}
