package repository

import (
	"context"

	"gorm.io/gorm"

	"bookingcore/internal/model"
)

// EarningRepository defines connector earning persistence operations.
type EarningRepository interface {
	Create(ctx context.Context, earning *model.ConnectorEarning) error
	ExistsForBooking(ctx context.Context, bookingID uint) (bool, error)
}

type earningRepository struct {
	db *gorm.DB
}

// NewEarningRepository creates a new earning repository.
func NewEarningRepository(db *gorm.DB) EarningRepository {
	return &earningRepository{db: db}
}

func (r *earningRepository) Create(ctx context.Context, earning *model.ConnectorEarning) error {
	return r.db.WithContext(ctx).Create(earning).Error
}

func (r *earningRepository) ExistsForBooking(ctx context.Context, bookingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ConnectorEarning{}).
		Where("booking_id = ?", bookingID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
