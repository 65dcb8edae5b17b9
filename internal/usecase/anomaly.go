package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/internal/domain/repository"
	"screenwatch-service/pkg/logger"
)

// Health status for a cinema in a cross-cinema report
const (
	HealthHealthy = "healthy"
	HealthAnomaly = "anomaly"
	HealthUnknown = "unknown"
)

// DetectorConfig holds the tiered sensitivity thresholds
type DetectorConfig struct {
	TopTierDropPct      float64 // top tier flags drops exceeding this
	StandardTierDropPct float64 // standard tier flags drops exceeding this
	HighCountCeilingPct float64 // positive deviation beyond this is suspect
	HealthCheckBudget   time.Duration
}

// Classification is the outcome of comparing a run against history
type Classification struct {
	AnomalyType   string // empty when healthy
	PercentChange float64
}

// Healthy reports whether no anomaly was detected
func (c Classification) Healthy() bool {
	return c.AnomalyType == ""
}

// Classify compares today's count against the same weekday one week
// prior. Pure function, no I/O. Zero results are always anomalous
// regardless of tier: a live cinema showing nothing today is
// categorically suspicious. Tier sets how large a drop must be before
// it is flagged: independents have low volume where an outage hides
// inside natural variance, while chains have promotional swings that
// would cause alert fatigue under a tight threshold.
func Classify(current, lastWeek int, tier string, config DetectorConfig) Classification {
	percentChange := 0.0
	if lastWeek != 0 {
		percentChange = float64(current-lastWeek) / float64(lastWeek) * 100
	}

	if current == 0 {
		return Classification{AnomalyType: entity.AnomalyZeroResults, PercentChange: percentChange}
	}

	dropThreshold := config.StandardTierDropPct
	if tier == entity.TierTop {
		dropThreshold = config.TopTierDropPct
	}

	if percentChange < -dropThreshold {
		return Classification{AnomalyType: entity.AnomalyLowCount, PercentChange: percentChange}
	}

	// A jump past the ceiling usually means duplicate ingestion, not a
	// busy cinema
	if percentChange > config.HighCountCeilingPct {
		return Classification{AnomalyType: entity.AnomalyHighCount, PercentChange: percentChange}
	}

	return Classification{PercentChange: percentChange}
}

// CinemaHealth is the per-cinema result of a detector check
type CinemaHealth struct {
	CinemaID          uint
	CinemaSlug        string
	Status            string
	AnomalyDetected   bool
	AnomalyType       string
	Warnings          []string
	ShouldBlockScrape bool
}

// HealthReport summarizes a cross-cinema health check
type HealthReport struct {
	Total       int
	Healthy     int
	Anomalies   int
	Unknown     int
	ShouldBlock int
	Results     []CinemaHealth
}

// AnomalyDetector judges completed scraper runs against per-cinema
// baselines. It only ever reads; classification is advisory.
type AnomalyDetector struct {
	cinemaRepo   repository.CinemaRepository
	runRepo      repository.ScraperRunRepository
	baselineRepo repository.BaselineRepository
	config       DetectorConfig
	logger       logger.Logger
}

// NewAnomalyDetector creates a new anomaly detector
func NewAnomalyDetector(
	cinemaRepo repository.CinemaRepository,
	runRepo repository.ScraperRunRepository,
	baselineRepo repository.BaselineRepository,
	config DetectorConfig,
	logger logger.Logger,
) *AnomalyDetector {
	return &AnomalyDetector{
		cinemaRepo:   cinemaRepo,
		runRepo:      runRepo,
		baselineRepo: baselineRepo,
		config:       config,
		logger:       logger,
	}
}

// CheckCinema evaluates a cinema's most recent completed run
func (d *AnomalyDetector) CheckCinema(ctx context.Context, cinemaID uint) (*CinemaHealth, error) {
	cinema, err := d.cinemaRepo.GetByID(ctx, cinemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cinema %d: %w", cinemaID, err)
	}

	health := &CinemaHealth{
		CinemaID:   cinema.ID,
		CinemaSlug: cinema.Slug,
		Status:     HealthHealthy,
	}

	run, err := d.runRepo.FindLatestByCinema(ctx, cinemaID)
	if err != nil {
		// No run history yet is not an anomaly
		health.Status = HealthUnknown
		health.Warnings = append(health.Warnings, "no completed scraper runs on record")
		return health, nil
	}

	if run.Status == entity.RunStatusFailed {
		health.Status = HealthAnomaly
		health.AnomalyDetected = true
		health.AnomalyType = entity.AnomalyError
		health.ShouldBlockScrape = true
		if run.AnomalyDetails != nil && run.AnomalyDetails.ErrorMessage != "" {
			health.Warnings = append(health.Warnings, run.AnomalyDetails.ErrorMessage)
		}
		return health, nil
	}

	lastWeekCount := d.lastWeekCount(ctx, cinemaID, run.StartedAt)
	classification := Classify(run.ScreeningCount, lastWeekCount, cinema.Tier(), d.config)

	if !classification.Healthy() {
		health.Status = HealthAnomaly
		health.AnomalyDetected = true
		health.AnomalyType = classification.AnomalyType
		health.ShouldBlockScrape = classification.AnomalyType == entity.AnomalyZeroResults
		health.Warnings = append(health.Warnings, fmt.Sprintf(
			"count %d vs %d same weekday last week (%.1f%% change)",
			run.ScreeningCount, lastWeekCount, classification.PercentChange))
	}

	d.addBaselineWarnings(ctx, health, run)

	return health, nil
}

// CheckAll runs the detector over every active cinema's latest run,
// within a fixed time budget. Cinemas not reached in time degrade to
// unknown status rather than blocking the report.
func (d *AnomalyDetector) CheckAll(ctx context.Context) (*HealthReport, error) {
	ctx, cancel := context.WithTimeout(ctx, d.config.HealthCheckBudget)
	defer cancel()

	cinemas, err := d.cinemaRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active cinemas: %w", err)
	}

	report := &HealthReport{Total: len(cinemas)}

	for _, cinema := range cinemas {
		var health *CinemaHealth

		if ctx.Err() != nil {
			health = &CinemaHealth{
				CinemaID:   cinema.ID,
				CinemaSlug: cinema.Slug,
				Status:     HealthUnknown,
				Warnings:   []string{"health check budget exhausted"},
			}
		} else {
			health, err = d.CheckCinema(ctx, cinema.ID)
			if err != nil {
				d.logger.Error("Health check failed for cinema",
					"cinema", cinema.Slug,
					"error", err)
				health = &CinemaHealth{
					CinemaID:   cinema.ID,
					CinemaSlug: cinema.Slug,
					Status:     HealthUnknown,
					Warnings:   []string{err.Error()},
				}
			}
		}

		switch health.Status {
		case HealthHealthy:
			report.Healthy++
		case HealthAnomaly:
			report.Anomalies++
		default:
			report.Unknown++
		}
		if health.ShouldBlockScrape {
			report.ShouldBlock++
		}
		report.Results = append(report.Results, *health)
	}

	d.logger.Info("Cross-cinema health check completed",
		"total", report.Total,
		"healthy", report.Healthy,
		"anomalies", report.Anomalies,
		"unknown", report.Unknown,
		"shouldBlock", report.ShouldBlock)

	return report, nil
}

// lastWeekCount looks up the count from the same weekday one week
// before the given run. Missing history reads as zero.
func (d *AnomalyDetector) lastWeekCount(ctx context.Context, cinemaID uint, runDay time.Time) int {
	lastWeekRun, err := d.runRepo.FindByCinemaAround(ctx, cinemaID, runDay.AddDate(0, 0, -7))
	if err != nil || lastWeekRun == nil {
		return 0
	}
	return lastWeekRun.ScreeningCount
}

// addBaselineWarnings annotates the health with tolerance-band context
func (d *AnomalyDetector) addBaselineWarnings(ctx context.Context, health *CinemaHealth, run *entity.ScraperRun) {
	baseline, err := d.baselineRepo.GetByCinema(ctx, health.CinemaID)
	if err != nil {
		return
	}

	expected := baseline.ExpectedFor(run.StartedAt)
	if expected <= 0 {
		return
	}

	tolerance := expected * baseline.TolerancePct / 100
	min := int(math.Floor(expected - tolerance))
	max := int(math.Ceil(expected + tolerance))

	if run.ScreeningCount < min || run.ScreeningCount > max {
		health.Warnings = append(health.Warnings, fmt.Sprintf(
			"count %d outside baseline band [%d, %d]",
			run.ScreeningCount, min, max))
	}
}
