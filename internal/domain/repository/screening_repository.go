package repository

import (
	"context"

	"screenwatch-service/internal/domain/entity"
)

// ScreeningRepository defines the interface for canonical screening
// operations. Upsert must be atomic on the (film, cinema, starts-at)
// unique key so concurrent upserts for the same triple resolve via a
// conflict-aware write, never a read-then-write race.
type ScreeningRepository interface {
	Upsert(ctx context.Context, screening *entity.Screening) error
	FindByCinema(ctx context.Context, cinemaID uint) ([]*entity.Screening, error)
	CountByCinema(ctx context.Context, cinemaID uint) (int64, error)
}
