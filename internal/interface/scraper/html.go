package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/pkg/logger"
	"screenwatch-service/pkg/utils"
)

// HTMLPatterns holds the source-specific extraction rules for one
// scraped site. Each film block yields one or more showings.
type HTMLPatterns struct {
	Block *regexp.Regexp // matches one film block on the listings page
	Title *regexp.Regexp // capture group 1: film title within a block
	Time  *regexp.Regexp // capture group 1: datetime string, one per showing
	Link  *regexp.Regexp // capture group 1: booking href within a block
}

// HTMLScraper mines a listings page with site-specific regular
// expressions. It is the fallback strategy for sources exposing neither
// structured markup nor an API; the DOM details stay inside the
// patterns, the output contract is the same as every other adapter.
type HTMLScraper struct {
	config   ScraperConfig
	patterns HTMLPatterns
	client   *http.Client
	loc      *time.Location
	logger   logger.Logger
}

// NewHTMLScraper creates an HTML scraping adapter
func NewHTMLScraper(config ScraperConfig, patterns HTMLPatterns, client *http.Client, loc *time.Location, logger logger.Logger) *HTMLScraper {
	return &HTMLScraper{
		config:   config,
		patterns: patterns,
		client:   client,
		loc:      loc,
		logger:   logger,
	}
}

// Config returns the adapter's declared configuration
func (s *HTMLScraper) Config() ScraperConfig {
	return s.config
}

// HealthCheck probes the listings page without scraping it
func (s *HTMLScraper) HealthCheck(ctx context.Context) bool {
	return probeURL(ctx, s.client, s.config.BaseURL)
}

// Scrape fetches the listings page and applies the site patterns
func (s *HTMLScraper) Scrape(ctx context.Context) ([]entity.RawScreening, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listings page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read listings page: %w", err)
	}

	screenings := s.extract(string(body))

	s.logger.Info("HTML scrape completed",
		"cinema", s.config.CinemaSlug,
		"screenings", len(screenings))

	return screenings, nil
}

// extract walks the film blocks and emits one record per showing
func (s *HTMLScraper) extract(page string) []entity.RawScreening {
	var screenings []entity.RawScreening

	for _, blockMatch := range s.patterns.Block.FindAllString(page, -1) {
		titleMatch := s.patterns.Title.FindStringSubmatch(blockMatch)
		if titleMatch == nil {
			continue
		}
		title := utils.CleanHTMLText(titleMatch[1])

		bookingURL := ""
		if linkMatch := s.patterns.Link.FindStringSubmatch(blockMatch); linkMatch != nil {
			bookingURL = linkMatch[1]
		}

		for _, timeMatch := range s.patterns.Time.FindAllStringSubmatch(blockMatch, -1) {
			rawTime := utils.CleanHTMLText(timeMatch[1])

			raw := entity.RawScreening{
				Title:      title,
				RawStart:   rawTime,
				BookingURL: bookingURL,
			}

			startsAt, err := utils.ParseScreeningTime(rawTime, s.loc)
			if err != nil {
				s.logger.Warn("Unparsable showing time in HTML block",
					"cinema", s.config.CinemaSlug,
					"title", title,
					"raw", rawTime)
			} else {
				raw.StartsAt = startsAt
			}

			screenings = append(screenings, raw)
		}
	}

	return screenings
}
