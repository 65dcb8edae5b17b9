package usecase

import (
	"context"
	"fmt"
	"time"

	"screenwatch-service/internal/domain/repository"
	"screenwatch-service/internal/interface/scraper"
	"screenwatch-service/pkg/logger"
	"screenwatch-service/pkg/metrics"
)

// ScrapeRunner drives the scrape → validate → ingest → record sequence
// for registered adapters. One cinema's pipeline runs to completion
// before its run record is written. The runner itself is synchronous;
// concurrency across cinemas belongs to whoever calls it.
type ScrapeRunner struct {
	registry   *scraper.Registry
	chains     []*scraper.ChainScraper
	cinemaRepo repository.CinemaRepository
	pipeline   *IngestionPipeline
	metrics    *metrics.Metrics
	logger     logger.Logger
	now        func() time.Time
}

// NewScrapeRunner creates a new scrape runner
func NewScrapeRunner(
	registry *scraper.Registry,
	cinemaRepo repository.CinemaRepository,
	pipeline *IngestionPipeline,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ScrapeRunner {
	return &ScrapeRunner{
		registry:   registry,
		cinemaRepo: cinemaRepo,
		pipeline:   pipeline,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// AddChain registers a chain adapter with the runner
func (r *ScrapeRunner) AddChain(chain *scraper.ChainScraper) {
	r.chains = append(r.chains, chain)
}

// RunScraper executes one cinema's full pipeline. A missing adapter or
// unknown cinema aborts visibly; a scrape error fails soft into a
// failed run record.
func (r *ScrapeRunner) RunScraper(ctx context.Context, slug string, triggeredBy string) (*IngestOutcome, error) {
	adapter := r.registry.Get(slug)
	if adapter == nil {
		return nil, fmt.Errorf("no scraper registered for cinema %q", slug)
	}

	cinema, err := r.cinemaRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load cinema %q: %w", slug, err)
	}

	startedAt := r.now()
	r.logger.Info("Starting scrape",
		"cinema", slug,
		"scraperId", adapter.Config().ScraperID,
		"triggeredBy", triggeredBy)

	raws, scrapeErr := adapter.Scrape(ctx)
	if scrapeErr != nil {
		r.logger.Error("Scrape failed",
			"cinema", slug,
			"error", scrapeErr)
	}

	outcome, err := r.pipeline.Ingest(ctx, cinema, adapter.Config().ScraperID, triggeredBy, raws, startedAt, scrapeErr)
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.ScrapeDuration.Observe(r.now().Sub(startedAt).Seconds())
	}

	return outcome, nil
}

// RunChain executes a chain adapter, ingesting each venue's result as
// its own run. Venue failures arrive here already softened into empty
// results with the error attached.
func (r *ScrapeRunner) RunChain(ctx context.Context, chain *scraper.ChainScraper, triggeredBy string) error {
	startedAt := r.now()
	r.logger.Info("Starting chain scrape",
		"chain", chain.Config().ScraperID,
		"venues", len(chain.Venues()),
		"triggeredBy", triggeredBy)

	for _, result := range chain.ScrapeAll(ctx) {
		cinema, err := r.cinemaRepo.GetBySlug(ctx, result.CinemaSlug)
		if err != nil {
			r.logger.Error("Unknown venue in chain result",
				"chain", chain.Config().ScraperID,
				"cinema", result.CinemaSlug,
				"error", err)
			continue
		}

		if _, err := r.pipeline.Ingest(ctx, cinema, chain.Config().ScraperID, triggeredBy, result.Screenings, startedAt, result.Err); err != nil {
			r.logger.Error("Failed to ingest venue result",
				"chain", chain.Config().ScraperID,
				"cinema", result.CinemaSlug,
				"error", err)
		}
	}

	return nil
}

// RunAll executes every registered adapter and chain sequentially
func (r *ScrapeRunner) RunAll(ctx context.Context, triggeredBy string) {
	for _, adapter := range r.registry.All() {
		if ctx.Err() != nil {
			return
		}
		slug := adapter.Config().CinemaSlug
		if _, err := r.RunScraper(ctx, slug, triggeredBy); err != nil {
			r.logger.Error("Run aborted for cinema",
				"cinema", slug,
				"error", err)
		}
	}

	for _, chain := range r.chains {
		if ctx.Err() != nil {
			return
		}
		if err := r.RunChain(ctx, chain, triggeredBy); err != nil {
			r.logger.Error("Chain run aborted",
				"chain", chain.Config().ScraperID,
				"error", err)
		}
	}
}
