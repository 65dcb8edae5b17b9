package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/pkg/logger"
	"screenwatch-service/pkg/utils"
)

var ldJSONPattern = regexp.MustCompile(`(?is)<script[^>]+type="application/ld\+json"[^>]*>(.*?)</script>`)

// StructuredDataScraper extracts screenings from embedded ld+json
// markup on a single listings page. Sources that publish schema.org
// ScreeningEvent blocks need no source-specific parsing at all.
type StructuredDataScraper struct {
	config ScraperConfig
	client *http.Client
	loc    *time.Location
	logger logger.Logger
}

// NewStructuredDataScraper creates a structured-data adapter
func NewStructuredDataScraper(config ScraperConfig, client *http.Client, loc *time.Location, logger logger.Logger) *StructuredDataScraper {
	return &StructuredDataScraper{
		config: config,
		client: client,
		loc:    loc,
		logger: logger,
	}
}

// Config returns the adapter's declared configuration
func (s *StructuredDataScraper) Config() ScraperConfig {
	return s.config
}

// HealthCheck probes the listings page without scraping it
func (s *StructuredDataScraper) HealthCheck(ctx context.Context) bool {
	return probeURL(ctx, s.client, s.config.BaseURL)
}

// ldEvent mirrors the subset of a schema.org event block we consume
type ldEvent struct {
	Type          string  `json:"@type"`
	Name          string  `json:"name"`
	StartDate     string  `json:"startDate"`
	URL           string  `json:"url"`
	Identifier    string  `json:"identifier"`
	VideoFormat   string  `json:"videoFormat"`
	WorkPresented *ldWork `json:"workPresented"`
	Offers        ldOffer `json:"offers"`
}

type ldWork struct {
	Name          string `json:"name"`
	DatePublished string `json:"datePublished"`
}

type ldOffer struct {
	URL string `json:"url"`
}

// UnmarshalJSON accepts either a single offer object or an array of
// offers, keeping the first
func (o *ldOffer) UnmarshalJSON(data []byte) error {
	type plain ldOffer
	var single plain
	if err := json.Unmarshal(data, &single); err == nil {
		*o = ldOffer(single)
		return nil
	}

	var many []plain
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	if len(many) > 0 {
		*o = ldOffer(many[0])
	}
	return nil
}

// Scrape fetches the listings page and maps its ScreeningEvent blocks
// to raw screenings
func (s *StructuredDataScraper) Scrape(ctx context.Context) ([]entity.RawScreening, error) {
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

	screenings := s.extractEvents(string(body))

	s.logger.Info("Structured-data scrape completed",
		"cinema", s.config.CinemaSlug,
		"screenings", len(screenings))

	return screenings, nil
}

// extractEvents pulls every ld+json block out of the page and keeps the
// screening-event entries
func (s *StructuredDataScraper) extractEvents(page string) []entity.RawScreening {
	var screenings []entity.RawScreening

	for _, match := range ldJSONPattern.FindAllStringSubmatch(page, -1) {
		block := match[1]

		// A block holds either one event or an array of them
		var events []ldEvent
		if err := json.Unmarshal([]byte(block), &events); err != nil {
			var single ldEvent
			if err := json.Unmarshal([]byte(block), &single); err != nil {
				s.logger.Debug("Skipping unparsable ld+json block", "cinema", s.config.CinemaSlug, "error", err)
				continue
			}
			events = []ldEvent{single}
		}

		for _, event := range events {
			if event.Type != "ScreeningEvent" {
				continue
			}
			screenings = append(screenings, s.mapEvent(event))
		}
	}

	return screenings
}

// mapEvent converts one ld+json event into a raw screening
func (s *StructuredDataScraper) mapEvent(event ldEvent) entity.RawScreening {
	title := event.Name
	year := 0
	if event.WorkPresented != nil {
		if event.WorkPresented.Name != "" {
			title = event.WorkPresented.Name
		}
		if len(event.WorkPresented.DatePublished) >= 4 {
			fmt.Sscanf(event.WorkPresented.DatePublished[:4], "%d", &year)
		}
	}

	bookingURL := event.Offers.URL
	if bookingURL == "" {
		bookingURL = event.URL
	}

	raw := entity.RawScreening{
		Title:      title,
		RawStart:   event.StartDate,
		BookingURL: bookingURL,
		Format:     event.VideoFormat,
		SourceID:   event.Identifier,
		Year:       year,
	}

	startsAt, err := utils.ParseScreeningTime(event.StartDate, s.loc)
	if err != nil {
		// Leave StartsAt zero; the validator rejects it as unparsable
		s.logger.Warn("Unparsable start date in ld+json event",
			"cinema", s.config.CinemaSlug,
			"title", title,
			"startDate", event.StartDate)
		return raw
	}

	raw.StartsAt = startsAt
	return raw
}
