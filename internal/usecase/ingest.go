package usecase

import (
	"context"
	"math"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/internal/domain/repository"
	"screenwatch-service/pkg/logger"
	"screenwatch-service/pkg/metrics"

	"github.com/google/uuid"
)

// IngestOutcome summarizes one pipeline execution
type IngestOutcome struct {
	Run           *entity.ScraperRun
	Summary       BatchSummary
	Ingested      int
	WriteFailures int
}

// IngestionPipeline takes an adapter's output for one cinema, makes the
// canonical store reflect it, and records a ScraperRun. Re-running the
// same output is idempotent: the (film, cinema, starts-at) unique key
// turns repeats into updates.
type IngestionPipeline struct {
	filmRepo      repository.FilmRepository
	screeningRepo repository.ScreeningRepository
	runRepo       repository.ScraperRunRepository
	baselineRepo  repository.BaselineRepository
	validator     *Validator
	detectorCfg   DetectorConfig
	metrics       *metrics.Metrics
	logger        logger.Logger
	now           func() time.Time
}

// NewIngestionPipeline creates a new ingestion pipeline
func NewIngestionPipeline(
	filmRepo repository.FilmRepository,
	screeningRepo repository.ScreeningRepository,
	runRepo repository.ScraperRunRepository,
	baselineRepo repository.BaselineRepository,
	validator *Validator,
	detectorCfg DetectorConfig,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *IngestionPipeline {
	return &IngestionPipeline{
		filmRepo:      filmRepo,
		screeningRepo: screeningRepo,
		runRepo:       runRepo,
		baselineRepo:  baselineRepo,
		validator:     validator,
		detectorCfg:   detectorCfg,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// Ingest validates and upserts one cinema's scrape output, then
// appends the run record. scrapeErr, when non-nil, marks the whole run
// failed; the adapter already failed soft upstream.
func (p *IngestionPipeline) Ingest(
	ctx context.Context,
	cinema *entity.Cinema,
	scraperID string,
	triggeredBy string,
	raws []entity.RawScreening,
	startedAt time.Time,
	scrapeErr error,
) (*IngestOutcome, error) {
	run := &entity.ScraperRun{
		RunID:       uuid.NewString(),
		CinemaID:    cinema.ID,
		ScraperID:   scraperID,
		TriggeredBy: triggeredBy,
		StartedAt:   startedAt,
	}

	if scrapeErr != nil {
		return p.recordFailedRun(ctx, run, scrapeErr)
	}

	batch := p.validator.ValidateScreenings(raws)
	if p.metrics != nil {
		p.metrics.ScreeningsRejected.Add(float64(batch.Summary.Rejected))
	}

	// Upsert each accepted record; individual write failures are
	// counted, never allowed to abort the batch
	ingested := 0
	writeFailures := 0
	for _, raw := range batch.Accepted {
		if err := p.upsertScreening(ctx, cinema, raw); err != nil {
			writeFailures++
			p.logger.Error("Failed to persist screening",
				"cinema", cinema.Slug,
				"title", raw.Title,
				"startsAt", raw.StartsAt,
				"error", err)
			if p.metrics != nil {
				p.metrics.ErrorsCount.WithLabelValues("screening_upsert").Inc()
			}
			continue
		}
		ingested++
	}

	if p.metrics != nil {
		p.metrics.ScreeningsIngested.Add(float64(ingested))
	}

	run.ScreeningCount = ingested
	run.CompletedAt = p.now()
	run.Status = p.classifyRun(ctx, cinema, run, writeFailures)

	if err := p.runRepo.Append(ctx, run); err != nil {
		p.logger.Error("Failed to record scraper run",
			"cinema", cinema.Slug,
			"runId", run.RunID,
			"error", err)
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.RunsTotal.WithLabelValues(run.Status).Inc()
		if run.AnomalyType != nil {
			p.metrics.AnomaliesDetected.WithLabelValues(*run.AnomalyType).Inc()
		}
	}

	p.logger.Info("Ingestion completed",
		"cinema", cinema.Slug,
		"runId", run.RunID,
		"status", run.Status,
		"total", batch.Summary.Total,
		"valid", batch.Summary.Valid,
		"rejected", batch.Summary.Rejected,
		"ingested", ingested,
		"writeFailures", writeFailures)

	return &IngestOutcome{
		Run:           run,
		Summary:       batch.Summary,
		Ingested:      ingested,
		WriteFailures: writeFailures,
	}, nil
}

// upsertScreening resolves the film identity and writes the canonical
// record keyed by (film, cinema, starts-at)
func (p *IngestionPipeline) upsertScreening(ctx context.Context, cinema *entity.Cinema, raw entity.RawScreening) error {
	film, err := p.filmRepo.ResolveOrCreate(ctx, raw.Title, raw.Year)
	if err != nil {
		return err
	}

	screening := &entity.Screening{
		FilmID:        film.ID,
		CinemaID:      cinema.ID,
		StartsAt:      raw.StartsAt,
		Format:        raw.Format,
		Screen:        raw.Screen,
		EventType:     raw.EventType,
		BookingURL:    raw.BookingURL,
		Accessibility: raw.Accessibility,
		LinkStatus:    entity.LinkUnverified,
		SourceID:      raw.SourceID,
	}

	return p.screeningRepo.Upsert(ctx, screening)
}

// classifyRun decides the run status from the realized count, the same
// weekday one week prior, and the write-failure tally
func (p *IngestionPipeline) classifyRun(ctx context.Context, cinema *entity.Cinema, run *entity.ScraperRun, writeFailures int) string {
	lastWeek := 0
	if lastWeekRun, err := p.runRepo.FindByCinemaAround(ctx, cinema.ID, run.StartedAt.AddDate(0, 0, -7)); err == nil && lastWeekRun != nil {
		lastWeek = lastWeekRun.ScreeningCount
	}

	classification := Classify(run.ScreeningCount, lastWeek, cinema.Tier(), p.detectorCfg)
	p.attachBaseline(ctx, cinema, run)

	if !classification.Healthy() {
		anomalyType := classification.AnomalyType
		run.AnomalyType = &anomalyType
		if run.AnomalyDetails == nil {
			run.AnomalyDetails = &entity.AnomalyDetails{}
		}
		run.AnomalyDetails.PercentChange = classification.PercentChange
		return entity.RunStatusAnomaly
	}

	if writeFailures > 0 {
		return entity.RunStatusPartial
	}
	return entity.RunStatusSuccess
}

// attachBaseline fills in the expected range for comparison, when a
// baseline exists
func (p *IngestionPipeline) attachBaseline(ctx context.Context, cinema *entity.Cinema, run *entity.ScraperRun) {
	baseline, err := p.baselineRepo.GetByCinema(ctx, cinema.ID)
	if err != nil {
		return
	}

	expected := baseline.ExpectedFor(run.StartedAt)
	run.BaselineCount = int(math.Round(expected))

	tolerance := expected * baseline.TolerancePct / 100
	run.AnomalyDetails = &entity.AnomalyDetails{
		ExpectedMin: int(math.Floor(expected - tolerance)),
		ExpectedMax: int(math.Ceil(expected + tolerance)),
	}
}

// recordFailedRun writes the audit record for a scrape that produced
// nothing because the source errored
func (p *IngestionPipeline) recordFailedRun(ctx context.Context, run *entity.ScraperRun, scrapeErr error) (*IngestOutcome, error) {
	anomalyType := entity.AnomalyError
	run.Status = entity.RunStatusFailed
	run.AnomalyType = &anomalyType
	run.AnomalyDetails = &entity.AnomalyDetails{ErrorMessage: scrapeErr.Error()}
	run.CompletedAt = p.now()

	if err := p.runRepo.Append(ctx, run); err != nil {
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.RunsTotal.WithLabelValues(entity.RunStatusFailed).Inc()
		p.metrics.ErrorsCount.WithLabelValues("scrape").Inc()
	}

	return &IngestOutcome{Run: run}, nil
}
