package entity

import "time"

// RawScreening is an unvalidated screening record as emitted by a source
// adapter. It carries no identity beyond what the source supplies; the
// validator and ingestion pipeline decide what becomes canonical.
type RawScreening struct {
	Title      string
	StartsAt   time.Time
	RawStart   string // original datetime string, kept for diagnostics
	BookingURL string
	Screen     string
	Format     string // e.g. "35mm", "IMAX", "2D"
	EventType  string // e.g. "qa", "preview", "festival"
	SourceID   string // source-native identifier, may be empty
	Year       int    // release year when the source supplies one

	Accessibility []string // e.g. "audio_described", "captioned"
}
