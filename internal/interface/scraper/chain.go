package scraper

import (
	"context"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/pkg/logger"
)

// VenueResult is one venue's outcome within a chain run
type VenueResult struct {
	CinemaSlug string
	Screenings []entity.RawScreening
	Err        error
}

// ChainScraper covers every venue of one brand with a single adapter.
// Venues share an origin, so politeness is enforced across the chain:
// venues are fetched sequentially with a fixed sleep between them, and
// one venue's failure yields an empty result for that venue instead of
// aborting the run.
type ChainScraper struct {
	config ScraperConfig
	venues []Scraper
	logger logger.Logger
	sleep  func(ctx context.Context, d time.Duration)
}

// NewChainScraper creates a chain adapter over per-venue scrapers
func NewChainScraper(config ScraperConfig, venues []Scraper, logger logger.Logger) *ChainScraper {
	return &ChainScraper{
		config: config,
		venues: venues,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Config returns the chain-level configuration
func (c *ChainScraper) Config() ScraperConfig {
	return c.config
}

// Venues returns the per-venue scrapers in fetch order
func (c *ChainScraper) Venues() []Scraper {
	return c.venues
}

// HealthCheck probes the brand origin once, not every venue
func (c *ChainScraper) HealthCheck(ctx context.Context) bool {
	if len(c.venues) == 0 {
		return false
	}
	return c.venues[0].HealthCheck(ctx)
}

// ScrapeAll fetches every venue sequentially. The configured delay is
// a throttle against the shared origin, not a retry backoff.
func (c *ChainScraper) ScrapeAll(ctx context.Context) []VenueResult {
	results := make([]VenueResult, 0, len(c.venues))

	for i, venue := range c.venues {
		if i > 0 {
			c.sleep(ctx, c.config.Politeness.RequestDelay)
		}
		if ctx.Err() != nil {
			break
		}

		slug := venue.Config().CinemaSlug
		screenings, err := venue.Scrape(ctx)
		if err != nil {
			// Fail soft: log, record zero screenings for this venue,
			// keep the chain going
			c.logger.Error("Venue scrape failed within chain",
				"chain", c.config.ScraperID,
				"cinema", slug,
				"error", err)
			results = append(results, VenueResult{CinemaSlug: slug, Screenings: nil, Err: err})
			continue
		}

		results = append(results, VenueResult{CinemaSlug: slug, Screenings: screenings})
	}

	return results
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
