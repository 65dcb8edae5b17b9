package repository

import (
	"context"
	"strings"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormFilmRepository implements the FilmRepository interface
type GormFilmRepository struct {
	db *gorm.DB
}

// NewGormFilmRepository creates a new GORM film repository
func NewGormFilmRepository(db *gorm.DB) repository.FilmRepository {
	return &GormFilmRepository{
		db: db,
	}
}

// Films GORM model for database mapping
type Films struct {
	ID        uint           `gorm:"primaryKey"`
	Title     string         `gorm:"column:title;uniqueIndex:idx_title_year"`
	Year      int            `gorm:"column:year;uniqueIndex:idx_title_year"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Films) TableName() string {
	return "m_films"
}

// ResolveOrCreate returns the film identity for a scraped title,
// creating it on first sight. Matching is case-insensitive on the
// trimmed title; richer cross-source matching lives elsewhere.
func (r *GormFilmRepository) ResolveOrCreate(ctx context.Context, title string, year int) (*entity.Film, error) {
	trimmed := strings.TrimSpace(title)

	var film Films
	result := r.db.WithContext(ctx).
		Where("LOWER(title) = LOWER(?) AND year = ?", trimmed, year).
		First(&film)

	if result.Error != nil {
		if result.Error != gorm.ErrRecordNotFound {
			return nil, result.Error
		}
		film = Films{Title: trimmed, Year: year}
		if err := r.db.WithContext(ctx).Create(&film).Error; err != nil {
			return nil, err
		}
	}

	return &entity.Film{
		ID:        film.ID,
		Title:     film.Title,
		Year:      film.Year,
		CreatedAt: film.CreatedAt,
		UpdatedAt: film.UpdatedAt,
		DeletedAt: film.DeletedAt,
	}, nil
}
