package repository

import (
	"context"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormCinemaRepository implements the CinemaRepository interface
type GormCinemaRepository struct {
	db *gorm.DB
}

// NewGormCinemaRepository creates a new GORM cinema repository
func NewGormCinemaRepository(db *gorm.DB) repository.CinemaRepository {
	return &GormCinemaRepository{
		db: db,
	}
}

// Cinemas GORM model for database mapping
type Cinemas struct {
	ID        uint           `gorm:"primaryKey"`
	Slug      string         `gorm:"column:slug;unique"`
	Name      string         `gorm:"column:name"`
	Chain     string         `gorm:"column:chain"`
	Flagship  bool           `gorm:"column:flagship"`
	Active    bool           `gorm:"column:active;index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Cinemas) TableName() string {
	return "m_cinemas"
}

// GetBySlug finds a cinema by slug
func (r *GormCinemaRepository) GetBySlug(ctx context.Context, slug string) (*entity.Cinema, error) {
	var cinema Cinemas
	result := r.db.WithContext(ctx).Where("slug = ?", slug).First(&cinema)

	if result.Error != nil {
		return nil, result.Error
	}

	return toCinemaEntity(&cinema), nil
}

// GetByID finds a cinema by ID
func (r *GormCinemaRepository) GetByID(ctx context.Context, id uint) (*entity.Cinema, error) {
	var cinema Cinemas
	result := r.db.WithContext(ctx).First(&cinema, id)

	if result.Error != nil {
		return nil, result.Error
	}

	return toCinemaEntity(&cinema), nil
}

// FindActive returns all cinemas currently enabled for scraping
func (r *GormCinemaRepository) FindActive(ctx context.Context) ([]*entity.Cinema, error) {
	var cinemas []Cinemas
	result := r.db.WithContext(ctx).Where("active = ?", true).Order("slug").Find(&cinemas)

	if result.Error != nil {
		return nil, result.Error
	}

	entities := make([]*entity.Cinema, len(cinemas))
	for i := range cinemas {
		entities[i] = toCinemaEntity(&cinemas[i])
	}
	return entities, nil
}

// Convert GORM model to domain entity
func toCinemaEntity(c *Cinemas) *entity.Cinema {
	return &entity.Cinema{
		ID:        c.ID,
		Slug:      c.Slug,
		Name:      c.Name,
		Chain:     c.Chain,
		Flagship:  c.Flagship,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		DeletedAt: c.DeletedAt,
	}
}
