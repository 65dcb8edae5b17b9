package entity

import (
	"time"

	"gorm.io/gorm"
)

// Cinema tiers control anomaly sensitivity
const (
	TierTop      = "top"
	TierStandard = "standard"
)

// Cinema represents a venue whose listings are scraped
type Cinema struct {
	ID        uint
	Slug      string
	Name      string
	Chain     string // empty or "independent" means no parent chain
	Flagship  bool   // curated flagship institutions are always top tier
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt
}

// Tier returns the anomaly-sensitivity tier for the cinema.
// Independent venues and flagship institutions get the tight threshold;
// chain venues have enough volume variance to warrant a looser one.
func (c *Cinema) Tier() string {
	if c.Flagship || c.Chain == "" || c.Chain == "independent" {
		return TierTop
	}
	return TierStandard
}
