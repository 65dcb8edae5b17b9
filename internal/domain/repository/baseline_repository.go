package repository

import (
	"context"

	"screenwatch-service/internal/domain/entity"
)

// BaselineRepository defines the interface for cinema baseline records
type BaselineRepository interface {
	GetByCinema(ctx context.Context, cinemaID uint) (*entity.CinemaBaseline, error)
	Save(ctx context.Context, baseline *entity.CinemaBaseline) error
}
