package usecase

import (
	"context"
	"fmt"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/internal/domain/repository"
	"screenwatch-service/pkg/logger"
)

const defaultTolerancePct = 20

// BaselineTracker maintains each cinema's expected screening counts
// from trailing run history. Baselines are created lazily on first
// calculation; a manual override pins the averages until an operator
// clears it.
type BaselineTracker struct {
	cinemaRepo   repository.CinemaRepository
	runRepo      repository.ScraperRunRepository
	baselineRepo repository.BaselineRepository
	window       time.Duration
	logger       logger.Logger
	now          func() time.Time
}

// NewBaselineTracker creates a new baseline tracker. window is the
// trailing history span to average over.
func NewBaselineTracker(
	cinemaRepo repository.CinemaRepository,
	runRepo repository.ScraperRunRepository,
	baselineRepo repository.BaselineRepository,
	window time.Duration,
	logger logger.Logger,
) *BaselineTracker {
	return &BaselineTracker{
		cinemaRepo:   cinemaRepo,
		runRepo:      runRepo,
		baselineRepo: baselineRepo,
		window:       window,
		logger:       logger,
		now:          time.Now,
	}
}

// Recalculate refreshes a cinema's baseline from trailing run history.
// Manually overridden baselines are returned untouched.
func (t *BaselineTracker) Recalculate(ctx context.Context, cinemaID uint) (*entity.CinemaBaseline, error) {
	cinema, err := t.cinemaRepo.GetByID(ctx, cinemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cinema %d: %w", cinemaID, err)
	}

	existing, err := t.baselineRepo.GetByCinema(ctx, cinemaID)
	if err == nil && existing.ManualOverride {
		t.logger.Debug("Skipping recalculation for manually pinned baseline",
			"cinema", cinema.Slug)
		return existing, nil
	}

	since := t.now().Add(-t.window)
	runs, err := t.runRepo.FindByCinemaSince(ctx, cinemaID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load run history: %w", err)
	}

	weekdayAvg, weekendAvg := averageCounts(runs)

	baseline := &entity.CinemaBaseline{
		CinemaID:         cinemaID,
		Tier:             cinema.Tier(),
		WeekdayAvg:       weekdayAvg,
		WeekendAvg:       weekendAvg,
		TolerancePct:     defaultTolerancePct,
		LastCalculatedAt: t.now(),
	}
	if existing != nil {
		baseline.ID = existing.ID
		baseline.TolerancePct = existing.TolerancePct
	}

	if err := t.baselineRepo.Save(ctx, baseline); err != nil {
		return nil, fmt.Errorf("failed to save baseline: %w", err)
	}

	t.logger.Info("Baseline recalculated",
		"cinema", cinema.Slug,
		"tier", baseline.Tier,
		"weekdayAvg", weekdayAvg,
		"weekendAvg", weekendAvg,
		"runs", len(runs))

	return baseline, nil
}

// SetManualBaseline pins a cinema's baseline to operator-supplied
// averages. Recalculation will not touch it afterwards.
func (t *BaselineTracker) SetManualBaseline(ctx context.Context, cinemaID uint, weekdayAvg, weekendAvg, tolerancePct float64) (*entity.CinemaBaseline, error) {
	cinema, err := t.cinemaRepo.GetByID(ctx, cinemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cinema %d: %w", cinemaID, err)
	}

	baseline := &entity.CinemaBaseline{
		CinemaID:         cinemaID,
		Tier:             cinema.Tier(),
		WeekdayAvg:       weekdayAvg,
		WeekendAvg:       weekendAvg,
		TolerancePct:     tolerancePct,
		ManualOverride:   true,
		LastCalculatedAt: t.now(),
	}

	if existing, err := t.baselineRepo.GetByCinema(ctx, cinemaID); err == nil {
		baseline.ID = existing.ID
	}

	if err := t.baselineRepo.Save(ctx, baseline); err != nil {
		return nil, fmt.Errorf("failed to save baseline: %w", err)
	}

	t.logger.Info("Baseline manually pinned",
		"cinema", cinema.Slug,
		"weekdayAvg", weekdayAvg,
		"weekendAvg", weekendAvg)

	return baseline, nil
}

// averageCounts splits realized runs into weekday and weekend buckets
// and averages each. Failed runs carry no usable count.
func averageCounts(runs []*entity.ScraperRun) (weekdayAvg, weekendAvg float64) {
	var weekdaySum, weekdayN, weekendSum, weekendN int

	for _, run := range runs {
		if run.Status == entity.RunStatusFailed {
			continue
		}
		switch run.StartedAt.Weekday() {
		case time.Saturday, time.Sunday:
			weekendSum += run.ScreeningCount
			weekendN++
		default:
			weekdaySum += run.ScreeningCount
			weekdayN++
		}
	}

	if weekdayN > 0 {
		weekdayAvg = float64(weekdaySum) / float64(weekdayN)
	}
	if weekendN > 0 {
		weekendAvg = float64(weekendSum) / float64(weekendN)
	}
	return weekdayAvg, weekendAvg
}
