// internal/domain/entity/scraper_run.go
package entity

import (
	"time"
)

// Scraper run status
const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
	RunStatusAnomaly = "anomaly"
	RunStatusPartial = "partial"
)

// Anomaly classification
const (
	AnomalyLowCount    = "low_count"
	AnomalyZeroResults = "zero_results"
	AnomalyError       = "error"
	AnomalyHighCount   = "high_count"
)

// ScraperRun is the audit record of one adapter execution. It is
// append-only: once written only the resolution flags may change.
type ScraperRun struct {
	ID             string          `bson:"_id,omitempty"`
	RunID          string          `bson:"runId"` // uuid, unique index
	CinemaID       uint            `bson:"cinemaId"`
	ScraperID      string          `bson:"scraperId"`
	TriggeredBy    string          `bson:"triggeredBy"`
	StartedAt      time.Time       `bson:"startedAt"`
	CompletedAt    time.Time       `bson:"completedAt"`
	Status         string          `bson:"status"`
	ScreeningCount int             `bson:"screeningCount"`
	BaselineCount  int             `bson:"baselineCount"`
	AnomalyType    *string         `bson:"anomalyType,omitempty"`
	AnomalyDetails *AnomalyDetails `bson:"anomalyDetails,omitempty"`
	Resolution     Resolution      `bson:"resolution"`
}

// AnomalyDetails carries human-readable context for an anomalous run
type AnomalyDetails struct {
	ExpectedMin   int     `bson:"expectedMin"`
	ExpectedMax   int     `bson:"expectedMax"`
	PercentChange float64 `bson:"percentChange"`
	ErrorMessage  string  `bson:"errorMessage,omitempty"`
}

// Resolution records later operator or agent action on a run
type Resolution struct {
	AutoFixed   bool `bson:"autoFixed"`
	AutoRetried bool `bson:"autoRetried"`
	FixedByAI   bool `bson:"fixedByAi"`
}
