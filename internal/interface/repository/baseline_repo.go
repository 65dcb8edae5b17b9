package repository

import (
	"context"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBaselineRepository implements the BaselineRepository interface
type GormBaselineRepository struct {
	db *gorm.DB
}

// NewGormBaselineRepository creates a new GORM baseline repository
func NewGormBaselineRepository(db *gorm.DB) repository.BaselineRepository {
	return &GormBaselineRepository{
		db: db,
	}
}

// CinemaBaselines GORM model for database mapping
type CinemaBaselines struct {
	ID               uint      `gorm:"primaryKey"`
	CinemaID         uint      `gorm:"column:cinema_id;unique;not null"`
	Tier             string    `gorm:"column:tier"`
	WeekdayAvg       float64   `gorm:"column:weekday_avg"`
	WeekendAvg       float64   `gorm:"column:weekend_avg"`
	TolerancePct     float64   `gorm:"column:tolerance_pct"`
	ManualOverride   bool      `gorm:"column:manual_override"`
	LastCalculatedAt time.Time `gorm:"column:last_calculated_at"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Cinema Cinemas `gorm:"foreignKey:CinemaID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default table name
func (CinemaBaselines) TableName() string {
	return "t_cinema_baselines"
}

// GetByCinema finds the baseline for one cinema
func (r *GormBaselineRepository) GetByCinema(ctx context.Context, cinemaID uint) (*entity.CinemaBaseline, error) {
	var model CinemaBaselines
	result := r.db.WithContext(ctx).Where("cinema_id = ?", cinemaID).First(&model)

	if result.Error != nil {
		return nil, result.Error
	}

	return &entity.CinemaBaseline{
		ID:               model.ID,
		CinemaID:         model.CinemaID,
		Tier:             model.Tier,
		WeekdayAvg:       model.WeekdayAvg,
		WeekendAvg:       model.WeekendAvg,
		TolerancePct:     model.TolerancePct,
		ManualOverride:   model.ManualOverride,
		LastCalculatedAt: model.LastCalculatedAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}, nil
}

// Save creates or updates a baseline, keyed by cinema
func (r *GormBaselineRepository) Save(ctx context.Context, baseline *entity.CinemaBaseline) error {
	model := CinemaBaselines{
		CinemaID:         baseline.CinemaID,
		Tier:             baseline.Tier,
		WeekdayAvg:       baseline.WeekdayAvg,
		WeekendAvg:       baseline.WeekendAvg,
		TolerancePct:     baseline.TolerancePct,
		ManualOverride:   baseline.ManualOverride,
		LastCalculatedAt: baseline.LastCalculatedAt,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cinema_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier", "weekday_avg", "weekend_avg", "tolerance_pct",
			"manual_override", "last_calculated_at", "updated_at",
		}),
	}).Create(&model)

	if result.Error != nil {
		return result.Error
	}

	baseline.ID = model.ID
	return nil
}
