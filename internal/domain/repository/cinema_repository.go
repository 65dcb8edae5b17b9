package repository

import (
	"context"

	"screenwatch-service/internal/domain/entity"
)

// CinemaRepository defines the interface for cinema operations
type CinemaRepository interface {
	GetBySlug(ctx context.Context, slug string) (*entity.Cinema, error)
	GetByID(ctx context.Context, id uint) (*entity.Cinema, error)
	FindActive(ctx context.Context) ([]*entity.Cinema, error)
}
