// internal/domain/entity/screening.go
package entity

import (
	"time"
)

// Booking link verification status
const (
	LinkUnverified = "unverified"
	LinkVerified   = "verified"
	LinkBroken     = "broken"
)

// Screening is a canonical, persisted screening. At most one may exist
// for a given (film, cinema, starts-at) triple; re-observing the triple
// updates the record in place. The pipeline never deletes screenings.
type Screening struct {
	ID            uint
	FilmID        uint
	CinemaID      uint
	StartsAt      time.Time
	Format        string
	Screen        string
	EventType     string
	BookingURL    string
	Accessibility []string // e.g. "audio_described", "captioned", "relaxed"
	LinkStatus    string
	SourceID      string
	CreatedAt     time.Time // first seen
	UpdatedAt     time.Time // last updated by a scrape
}
