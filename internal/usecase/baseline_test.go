package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenwatch-service/internal/domain/entity"
)

func newTestTracker(runs *fakeRunRepo, baselines *fakeBaselineRepo, cinemas ...*entity.Cinema) *BaselineTracker {
	tracker := NewBaselineTracker(newFakeCinemaRepo(cinemas...), runs, baselines, 28*24*time.Hour, nopLogger{})
	tracker.now = func() time.Time { return testNow }
	return tracker
}

func TestRecalculateSplitsWeekdayAndWeekend(t *testing.T) {
	cinema := &entity.Cinema{ID: 1, Slug: "prince-charles", Active: true}
	runs := &fakeRunRepo{}

	// testNow is Tuesday 11 March 2025
	tuesday := time.Date(2025, time.March, 4, 6, 0, 0, 0, time.UTC)
	wednesday := time.Date(2025, time.March, 5, 6, 0, 0, 0, time.UTC)
	saturday := time.Date(2025, time.March, 8, 6, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, time.March, 9, 6, 0, 0, 0, time.UTC)

	for _, seed := range []struct {
		at    time.Time
		count int
	}{
		{tuesday, 10},
		{wednesday, 14},
		{saturday, 20},
		{sunday, 24},
	} {
		runs.Append(context.Background(), &entity.ScraperRun{
			RunID: seed.at.String(), CinemaID: 1,
			Status: entity.RunStatusSuccess, ScreeningCount: seed.count, StartedAt: seed.at,
		})
	}

	baselines := newFakeBaselineRepo()
	tracker := newTestTracker(runs, baselines, cinema)

	baseline, err := tracker.Recalculate(context.Background(), 1)
	require.NoError(t, err)

	assert.InDelta(t, 12.0, baseline.WeekdayAvg, 0.01)
	assert.InDelta(t, 22.0, baseline.WeekendAvg, 0.01)
	assert.Equal(t, entity.TierTop, baseline.Tier)
	assert.InDelta(t, float64(defaultTolerancePct), baseline.TolerancePct, 0.01)

	saved, err := baselines.GetByCinema(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, saved.WeekdayAvg, 0.01)
}

func TestRecalculateExcludesFailedRuns(t *testing.T) {
	cinema := &entity.Cinema{ID: 1, Slug: "prince-charles", Active: true}
	runs := &fakeRunRepo{}
	tuesday := time.Date(2025, time.March, 4, 6, 0, 0, 0, time.UTC)

	runs.Append(context.Background(), &entity.ScraperRun{
		RunID: "ok", CinemaID: 1, Status: entity.RunStatusSuccess,
		ScreeningCount: 10, StartedAt: tuesday,
	})
	runs.Append(context.Background(), &entity.ScraperRun{
		RunID: "bad", CinemaID: 1, Status: entity.RunStatusFailed,
		ScreeningCount: 0, StartedAt: tuesday.Add(24 * time.Hour),
	})

	tracker := newTestTracker(runs, newFakeBaselineRepo(), cinema)

	baseline, err := tracker.Recalculate(context.Background(), 1)
	require.NoError(t, err)

	// the failed run's zero must not drag the average down
	assert.InDelta(t, 10.0, baseline.WeekdayAvg, 0.01)
}

func TestRecalculateIgnoresRunsOutsideWindow(t *testing.T) {
	cinema := &entity.Cinema{ID: 1, Slug: "prince-charles", Active: true}
	runs := &fakeRunRepo{}

	runs.Append(context.Background(), &entity.ScraperRun{
		RunID: "ancient", CinemaID: 1, Status: entity.RunStatusSuccess,
		ScreeningCount: 99, StartedAt: testNow.AddDate(0, 0, -60),
	})
	runs.Append(context.Background(), &entity.ScraperRun{
		RunID: "recent", CinemaID: 1, Status: entity.RunStatusSuccess,
		ScreeningCount: 10, StartedAt: testNow.AddDate(0, 0, -3),
	})

	tracker := newTestTracker(runs, newFakeBaselineRepo(), cinema)

	baseline, err := tracker.Recalculate(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, baseline.WeekdayAvg, 0.01)
}

func TestRecalculateLeavesManualOverrideAlone(t *testing.T) {
	cinema := &entity.Cinema{ID: 1, Slug: "prince-charles", Active: true}
	runs := &fakeRunRepo{}
	runs.Append(context.Background(), &entity.ScraperRun{
		RunID: "r", CinemaID: 1, Status: entity.RunStatusSuccess,
		ScreeningCount: 50, StartedAt: testNow.AddDate(0, 0, -3),
	})

	baselines := newFakeBaselineRepo()
	baselines.Save(context.Background(), &entity.CinemaBaseline{
		CinemaID: 1, WeekdayAvg: 7, WeekendAvg: 9, TolerancePct: 10, ManualOverride: true,
	})

	tracker := newTestTracker(runs, baselines, cinema)

	baseline, err := tracker.Recalculate(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, baseline.WeekdayAvg, 0.01)
	assert.True(t, baseline.ManualOverride)
}

func TestSetManualBaselinePins(t *testing.T) {
	cinema := &entity.Cinema{ID: 1, Slug: "prince-charles", Active: true}
	baselines := newFakeBaselineRepo()
	tracker := newTestTracker(&fakeRunRepo{}, baselines, cinema)

	baseline, err := tracker.SetManualBaseline(context.Background(), 1, 15, 25, 10)
	require.NoError(t, err)
	assert.True(t, baseline.ManualOverride)

	// a later recalculation must not overwrite the pinned averages
	recalced, err := tracker.Recalculate(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, recalced.WeekdayAvg, 0.01)
	assert.InDelta(t, 25.0, recalced.WeekendAvg, 0.01)
}

func TestRecalculatePreservesCustomTolerance(t *testing.T) {
	cinema := &entity.Cinema{ID: 1, Slug: "prince-charles", Active: true}
	runs := &fakeRunRepo{}
	runs.Append(context.Background(), &entity.ScraperRun{
		RunID: "r", CinemaID: 1, Status: entity.RunStatusSuccess,
		ScreeningCount: 10, StartedAt: testNow.AddDate(0, 0, -3),
	})

	baselines := newFakeBaselineRepo()
	baselines.Save(context.Background(), &entity.CinemaBaseline{
		CinemaID: 1, WeekdayAvg: 5, TolerancePct: 35,
	})

	tracker := newTestTracker(runs, baselines, cinema)

	baseline, err := tracker.Recalculate(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, baseline.WeekdayAvg, 0.01)
	assert.InDelta(t, 35.0, baseline.TolerancePct, 0.01)
}
