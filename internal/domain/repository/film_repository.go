package repository

import (
	"context"

	"screenwatch-service/internal/domain/entity"
)

// FilmRepository defines the interface for film identity resolution.
// Title normalization and cross-source matching live behind this
// interface; the pipeline only consumes resolve-or-create.
type FilmRepository interface {
	ResolveOrCreate(ctx context.Context, title string, year int) (*entity.Film, error)
}
