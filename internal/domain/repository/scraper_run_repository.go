package repository

import (
	"context"
	"time"

	"screenwatch-service/internal/domain/entity"
)

// ScraperRunRepository defines the interface for run audit records.
// Runs are append-only; only resolution flags may be updated later.
type ScraperRunRepository interface {
	Append(ctx context.Context, run *entity.ScraperRun) error
	FindLatestByCinema(ctx context.Context, cinemaID uint) (*entity.ScraperRun, error)
	FindByCinemaAround(ctx context.Context, cinemaID uint, day time.Time) (*entity.ScraperRun, error)
	FindByCinemaSince(ctx context.Context, cinemaID uint, since time.Time) ([]*entity.ScraperRun, error)
	UpdateResolution(ctx context.Context, runID string, resolution entity.Resolution) error
}
