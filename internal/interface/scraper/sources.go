package scraper

import (
	"net/http"
	"regexp"
	"time"

	"screenwatch-service/pkg/logger"
)

// Extraction strategies
const (
	StrategyStructuredData = "structured_data"
	StrategyVendorAPI      = "vendor_api"
	StrategyHTML           = "html"
)

// SourceDef declares one cinema source. Adding a source means adding a
// definition here (or registering a custom Scraper), never touching
// shared extraction logic.
type SourceDef struct {
	Slug       string
	ScraperID  string
	Strategy   string
	BaseURL    string
	VenueID    string        // vendor API strategy only
	Patterns   *HTMLPatterns // html strategy only
	Politeness Politeness
}

// ChainDef declares a brand covering several venues behind one adapter
type ChainDef struct {
	ScraperID  string
	BaseURL    string
	Politeness Politeness
	Venues     []SourceDef
}

var defaultPoliteness = Politeness{
	RequestsPerMinute: 20,
	RequestDelay:      3 * time.Second,
}

// DefaultSources lists the independently scraped cinemas
func DefaultSources() []SourceDef {
	return []SourceDef{
		{
			Slug:       "prince-charles",
			ScraperID:  "prince-charles-ld",
			Strategy:   StrategyStructuredData,
			BaseURL:    "https://princecharlescinema.com/whats-on/",
			Politeness: defaultPoliteness,
		},
		{
			Slug:       "castle-cinema",
			ScraperID:  "castle-cinema-ld",
			Strategy:   StrategyStructuredData,
			BaseURL:    "https://thecastlecinema.com/listings/",
			Politeness: defaultPoliteness,
		},
		{
			Slug:       "garden-cinema",
			ScraperID:  "garden-cinema-vendor",
			Strategy:   StrategyVendorAPI,
			BaseURL:    "https://api.indy-tickets.example.com",
			VenueID:    "garden-wc2",
			Politeness: defaultPoliteness,
		},
		{
			Slug:      "close-up",
			ScraperID: "close-up-html",
			Strategy:  StrategyHTML,
			BaseURL:   "https://www.closeupfilmcentre.com/film_programmes/",
			Patterns: &HTMLPatterns{
				Block: regexp.MustCompile(`(?s)<div class="programme-item">.*?</div>\s*</div>`),
				Title: regexp.MustCompile(`(?s)<h3[^>]*>(.*?)</h3>`),
				Time:  regexp.MustCompile(`(?s)<span class="screening-time"[^>]*>(.*?)</span>`),
				Link:  regexp.MustCompile(`href="(https?://[^"]+/booking[^"]*)"`),
			},
			Politeness: defaultPoliteness,
		},
	}
}

// DefaultChains lists the multi-venue brands. Venue fetches within a
// chain share the brand origin, so politeness lives on the chain.
func DefaultChains() []ChainDef {
	return []ChainDef{
		{
			ScraperID: "regalview-chain",
			BaseURL:   "https://api.regalview.example.com",
			Politeness: Politeness{
				RequestsPerMinute: 10,
				RequestDelay:      6 * time.Second,
			},
			Venues: []SourceDef{
				{Slug: "regalview-hackney", ScraperID: "regalview-hackney", Strategy: StrategyVendorAPI, VenueID: "rv-hackney"},
				{Slug: "regalview-brixton", ScraperID: "regalview-brixton", Strategy: StrategyVendorAPI, VenueID: "rv-brixton"},
				{Slug: "regalview-camden", ScraperID: "regalview-camden", Strategy: StrategyVendorAPI, VenueID: "rv-camden"},
			},
		},
	}
}

// Build constructs the adapter for one source definition
func Build(def SourceDef, baseURL string, windowDays int, client *http.Client, loc *time.Location, log logger.Logger) Scraper {
	if baseURL == "" {
		baseURL = def.BaseURL
	}
	config := ScraperConfig{
		ScraperID:  def.ScraperID,
		CinemaSlug: def.Slug,
		BaseURL:    baseURL,
		Politeness: def.Politeness,
	}

	switch def.Strategy {
	case StrategyVendorAPI:
		return NewVendorAPIScraper(config, def.VenueID, windowDays, client, loc, log)
	case StrategyHTML:
		return NewHTMLScraper(config, *def.Patterns, client, loc, log)
	default:
		return NewStructuredDataScraper(config, client, loc, log)
	}
}

// BuildChain constructs a chain adapter and its per-venue scrapers
func BuildChain(def ChainDef, windowDays int, client *http.Client, loc *time.Location, log logger.Logger) *ChainScraper {
	venues := make([]Scraper, 0, len(def.Venues))
	for _, venueDef := range def.Venues {
		venueDef.Politeness = def.Politeness
		venues = append(venues, Build(venueDef, def.BaseURL, windowDays, client, loc, log))
	}

	config := ScraperConfig{
		ScraperID:  def.ScraperID,
		CinemaSlug: def.ScraperID,
		BaseURL:    def.BaseURL,
		Politeness: def.Politeness,
	}

	return NewChainScraper(config, venues, log)
}
