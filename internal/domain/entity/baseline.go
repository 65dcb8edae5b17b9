package entity

import (
	"time"
)

// CinemaBaseline holds the expected screening counts for one cinema,
// either computed from trailing run history or pinned by an operator.
// When ManualOverride is set, recalculation must leave the averages alone.
type CinemaBaseline struct {
	ID               uint
	CinemaID         uint
	Tier             string
	WeekdayAvg       float64
	WeekendAvg       float64
	TolerancePct     float64
	ManualOverride   bool
	LastCalculatedAt time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ExpectedFor returns the baseline average for the given day
func (b *CinemaBaseline) ExpectedFor(t time.Time) float64 {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return b.WeekendAvg
	default:
		return b.WeekdayAvg
	}
}
