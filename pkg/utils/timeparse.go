package utils

import (
	"fmt"
	"strings"
	"time"
)

// Datetime layouts seen across cinema sources, tried in order. Sources
// disagree wildly; structured-data pages tend to emit RFC 3339 while
// vendor APIs and scraped HTML use local wall-clock variants.
var screeningLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
	"02 Jan 2006 15:04",
	"Monday 2 January 2006 15:04",
}

// ParseScreeningTime parses a source datetime string, trying known
// layouts in order. Layouts without an offset are interpreted in loc.
func ParseScreeningTime(raw string, loc *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}

	for _, layout := range screeningLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparsable datetime %q", raw)
}

// CombineDateAndTime builds a screening instant from a vendor date
// (yyyy-mm-dd) and a wall-clock time (HH:MM), both in loc.
func CombineDateAndTime(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", fmt.Sprintf("%s %s", strings.TrimSpace(date), strings.TrimSpace(clock)), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparsable date/time %q %q: %w", date, clock, err)
	}
	return t, nil
}
