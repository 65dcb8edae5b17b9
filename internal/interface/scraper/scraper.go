// Package scraper contains the source adapters that turn heterogeneous
// cinema websites and vendor APIs into a flat stream of raw screening
// records. Adapters never write to the canonical store; they hand their
// output to the validation and ingestion pipeline.
package scraper

import (
	"context"
	"net/http"
	"time"

	"screenwatch-service/internal/domain/entity"
)

// Politeness bounds how hard an adapter may hit a source origin
type Politeness struct {
	RequestsPerMinute int
	RequestDelay      time.Duration
}

// ScraperConfig declares an adapter's identity and limits
type ScraperConfig struct {
	ScraperID  string
	CinemaSlug string
	BaseURL    string
	Politeness Politeness
}

// Scraper is the contract every source adapter implements. Scrape does
// the full extraction; HealthCheck is a cheap reachability probe that
// must not count as a scrape.
type Scraper interface {
	Scrape(ctx context.Context) ([]entity.RawScreening, error)
	HealthCheck(ctx context.Context) bool
	Config() ScraperConfig
}

// probeURL issues a HEAD request against a source and reports whether
// the origin answered with anything below a server error
func probeURL(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}
