package repository

import (
	"context"
	"encoding/json"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/internal/domain/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormScreeningRepository implements the ScreeningRepository interface
type GormScreeningRepository struct {
	db *gorm.DB
}

// NewGormScreeningRepository creates a new GORM screening repository
func NewGormScreeningRepository(db *gorm.DB) repository.ScreeningRepository {
	return &GormScreeningRepository{
		db: db,
	}
}

// Screenings GORM model for database mapping. The composite unique
// index on (film_id, cinema_id, starts_at) is the correctness backbone:
// re-observing the same screening across runs updates in place.
type Screenings struct {
	ID            uint           `gorm:"primaryKey"`
	FilmID        uint           `gorm:"column:film_id;uniqueIndex:idx_film_cinema_start;not null"`
	CinemaID      uint           `gorm:"column:cinema_id;uniqueIndex:idx_film_cinema_start;not null"`
	StartsAt      time.Time      `gorm:"column:starts_at;uniqueIndex:idx_film_cinema_start;not null"`
	Format        string         `gorm:"column:format"`
	Screen        string         `gorm:"column:screen"`
	EventType     string         `gorm:"column:event_type"`
	BookingURL    string         `gorm:"column:booking_url"`
	Accessibility datatypes.JSON `gorm:"column:accessibility"`
	LinkStatus    string         `gorm:"column:link_status"`
	SourceID      string         `gorm:"column:source_id"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Film   Films   `gorm:"foreignKey:FilmID;constraint:OnDelete:CASCADE"`
	Cinema Cinemas `gorm:"foreignKey:CinemaID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default table name
func (Screenings) TableName() string {
	return "t_screenings"
}

// Upsert writes a screening keyed by (film, cinema, starts-at). On
// conflict the mutable fields are overwritten; created_at keeps the
// first-seen timestamp. The conflict clause makes concurrent upserts
// for the same triple safe.
func (r *GormScreeningRepository) Upsert(ctx context.Context, screening *entity.Screening) error {
	accessibility, err := json.Marshal(screening.Accessibility)
	if err != nil {
		return err
	}

	model := Screenings{
		FilmID:        screening.FilmID,
		CinemaID:      screening.CinemaID,
		StartsAt:      screening.StartsAt.UTC(),
		Format:        screening.Format,
		Screen:        screening.Screen,
		EventType:     screening.EventType,
		BookingURL:    screening.BookingURL,
		Accessibility: datatypes.JSON(accessibility),
		LinkStatus:    screening.LinkStatus,
		SourceID:      screening.SourceID,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "film_id"}, {Name: "cinema_id"}, {Name: "starts_at"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"format", "screen", "event_type", "booking_url",
			"accessibility", "link_status", "source_id", "updated_at",
		}),
	}).Create(&model)

	if result.Error != nil {
		return result.Error
	}

	screening.ID = model.ID
	return nil
}

// FindByCinema returns all screenings for one cinema
func (r *GormScreeningRepository) FindByCinema(ctx context.Context, cinemaID uint) ([]*entity.Screening, error) {
	var models []Screenings
	result := r.db.WithContext(ctx).Where("cinema_id = ?", cinemaID).Order("starts_at").Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	screenings := make([]*entity.Screening, len(models))
	for i := range models {
		screenings[i] = toScreeningEntity(&models[i])
	}
	return screenings, nil
}

// CountByCinema counts canonical screenings for one cinema
func (r *GormScreeningRepository) CountByCinema(ctx context.Context, cinemaID uint) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&Screenings{}).Where("cinema_id = ?", cinemaID).Count(&count)
	return count, result.Error
}

// Convert GORM model to domain entity
func toScreeningEntity(m *Screenings) *entity.Screening {
	var accessibility []string
	if len(m.Accessibility) > 0 {
		json.Unmarshal(m.Accessibility, &accessibility)
	}

	return &entity.Screening{
		ID:            m.ID,
		FilmID:        m.FilmID,
		CinemaID:      m.CinemaID,
		StartsAt:      m.StartsAt,
		Format:        m.Format,
		Screen:        m.Screen,
		EventType:     m.EventType,
		BookingURL:    m.BookingURL,
		Accessibility: accessibility,
		LinkStatus:    m.LinkStatus,
		SourceID:      m.SourceID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
