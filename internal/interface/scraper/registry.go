package scraper

import (
	"screenwatch-service/pkg/logger"
)

// Registry maps cinema slugs to their registered adapters. New sources
// are added by registering a new adapter, not by touching shared logic.
type Registry struct {
	scrapers map[string]Scraper
	order    []string
	logger   logger.Logger
}

// NewRegistry creates a new scraper registry
func NewRegistry(logger logger.Logger) *Registry {
	return &Registry{
		scrapers: make(map[string]Scraper),
		order:    make([]string, 0),
		logger:   logger,
	}
}

// Register registers an adapter under its configured cinema slug
func (r *Registry) Register(s Scraper) {
	slug := s.Config().CinemaSlug
	if _, exists := r.scrapers[slug]; !exists {
		r.order = append(r.order, slug)
	}
	r.scrapers[slug] = s
	r.logger.Info("Registered scraper", "cinema", slug, "scraperId", s.Config().ScraperID)
}

// Get returns the adapter for a cinema slug, or nil
func (r *Registry) Get(slug string) Scraper {
	return r.scrapers[slug]
}

// All returns every registered adapter in registration order
func (r *Registry) All() []Scraper {
	all := make([]Scraper, 0, len(r.order))
	for _, slug := range r.order {
		all = append(all, r.scrapers[slug])
	}
	return all
}
