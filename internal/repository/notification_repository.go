package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookingcore/internal/model"
)

// NotificationRepository writes to the notification outbox.
type NotificationRepository interface {
	// Create inserts the notification unless one of the same kind already
	// exists for the booking.
	Create(ctx context.Context, notification *model.Notification) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(notification).Error
}
