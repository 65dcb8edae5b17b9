package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/pkg/logger"
	"screenwatch-service/pkg/utils"
)

// VendorAPIScraper drives a ticketing vendor's REST API for one venue:
// enumerate scheduled films, batch-fetch film metadata, then fetch the
// schedule for a bounded future window and flatten it. Film metadata is
// cached per run so repeated showings of the same film cost one fetch.
type VendorAPIScraper struct {
	config     ScraperConfig
	venueID    string
	windowDays int
	client     *http.Client
	loc        *time.Location
	logger     logger.Logger
	now        func() time.Time
}

// NewVendorAPIScraper creates a vendor API adapter for one venue. The
// client should carry the vendor bearer token (oauth client-credentials).
func NewVendorAPIScraper(config ScraperConfig, venueID string, windowDays int, client *http.Client, loc *time.Location, logger logger.Logger) *VendorAPIScraper {
	return &VendorAPIScraper{
		config:     config,
		venueID:    venueID,
		windowDays: windowDays,
		client:     client,
		loc:        loc,
		logger:     logger,
		now:        time.Now,
	}
}

// Config returns the adapter's declared configuration
func (s *VendorAPIScraper) Config() ScraperConfig {
	return s.config
}

// HealthCheck probes the vendor API root without scraping
func (s *VendorAPIScraper) HealthCheck(ctx context.Context) bool {
	return probeURL(ctx, s.client, s.config.BaseURL)
}

// Vendor API response shapes
type vendorFilmList struct {
	FilmIDs []string `json:"filmIds"`
}

type vendorFilm struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ReleaseYear int    `json:"releaseYear"`
	Format      string `json:"format"`
}

type vendorSchedule struct {
	Days []vendorDay `json:"days"`
}

type vendorDay struct {
	Date  string          `json:"date"`
	Films []vendorDayFilm `json:"films"`
}

type vendorDayFilm struct {
	FilmID   string          `json:"filmId"`
	Showings []vendorShowing `json:"showings"`
}

type vendorShowing struct {
	Time       string   `json:"time"`
	Screen     string   `json:"screen"`
	BookingURL string   `json:"bookingUrl"`
	Expired    bool     `json:"expired"`
	Attributes []string `json:"attributes"`
}

// Scrape runs the three-step call sequence and flattens the nested
// schedule into raw screenings
func (s *VendorAPIScraper) Scrape(ctx context.Context) ([]entity.RawScreening, error) {
	// Step 1: enumerate films scheduled at the venue
	var list vendorFilmList
	listURL := fmt.Sprintf("%s/v1/venues/%s/scheduled-films", s.config.BaseURL, s.venueID)
	if err := s.getJSON(ctx, listURL, &list); err != nil {
		return nil, fmt.Errorf("failed to enumerate scheduled films: %w", err)
	}

	// Step 2: fetch film metadata, once per film for this run
	filmCache := make(map[string]*vendorFilm)
	for _, filmID := range list.FilmIDs {
		if _, ok := filmCache[filmID]; ok {
			continue
		}
		film, err := s.fetchFilm(ctx, filmID)
		if err != nil {
			s.logger.Warn("Failed to fetch film metadata",
				"cinema", s.config.CinemaSlug,
				"filmId", filmID,
				"error", err)
			continue
		}
		filmCache[filmID] = film
	}

	// Step 3: fetch the schedule for the bounded future window
	now := s.now()
	from := now.In(s.loc).Format("2006-01-02")
	to := now.In(s.loc).AddDate(0, 0, s.windowDays).Format("2006-01-02")

	var schedule vendorSchedule
	scheduleURL := fmt.Sprintf("%s/v1/venues/%s/schedule?from=%s&to=%s", s.config.BaseURL, s.venueID, from, to)
	if err := s.getJSON(ctx, scheduleURL, &schedule); err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	screenings := s.flatten(schedule, filmCache, now)

	s.logger.Info("Vendor API scrape completed",
		"cinema", s.config.CinemaSlug,
		"venueId", s.venueID,
		"films", len(filmCache),
		"screenings", len(screenings))

	return screenings, nil
}

// flatten walks the per-day, per-film, per-showing nesting and emits
// flat records, discarding expired and already-past showings
func (s *VendorAPIScraper) flatten(schedule vendorSchedule, filmCache map[string]*vendorFilm, now time.Time) []entity.RawScreening {
	var screenings []entity.RawScreening

	for _, day := range schedule.Days {
		for _, dayFilm := range day.Films {
			film, ok := filmCache[dayFilm.FilmID]
			if !ok {
				s.logger.Debug("Skipping showings for unknown film",
					"cinema", s.config.CinemaSlug,
					"filmId", dayFilm.FilmID)
				continue
			}

			for _, showing := range dayFilm.Showings {
				if showing.Expired {
					continue
				}

				raw := entity.RawScreening{
					Title:         film.Title,
					RawStart:      fmt.Sprintf("%s %s", day.Date, showing.Time),
					BookingURL:    showing.BookingURL,
					Screen:        showing.Screen,
					Format:        film.Format,
					SourceID:      fmt.Sprintf("%s:%s:%s", dayFilm.FilmID, day.Date, showing.Time),
					Year:          film.ReleaseYear,
					Accessibility: showing.Attributes,
				}

				startsAt, err := utils.CombineDateAndTime(day.Date, showing.Time, s.loc)
				if err != nil {
					s.logger.Warn("Unparsable showing time",
						"cinema", s.config.CinemaSlug,
						"filmId", dayFilm.FilmID,
						"date", day.Date,
						"time", showing.Time)
					screenings = append(screenings, raw)
					continue
				}
				if startsAt.Before(now) {
					continue
				}

				raw.StartsAt = startsAt
				screenings = append(screenings, raw)
			}
		}
	}

	return screenings
}

// fetchFilm retrieves one film's metadata
func (s *VendorAPIScraper) fetchFilm(ctx context.Context, filmID string) (*vendorFilm, error) {
	var film vendorFilm
	url := fmt.Sprintf("%s/v1/films/%s", s.config.BaseURL, filmID)
	if err := s.getJSON(ctx, url, &film); err != nil {
		return nil, err
	}
	return &film, nil
}

// getJSON issues a GET and decodes the JSON response
func (s *VendorAPIScraper) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vendor API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
