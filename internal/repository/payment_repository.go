package repository

import (
	"context"

	"gorm.io/gorm"

	"bookingcore/internal/model"
)

// PaymentEventRepository defines payment event persistence operations.
type PaymentEventRepository interface {
	Create(ctx context.Context, event *model.PaymentEvent) error
	CreateBatch(ctx context.Context, events []model.PaymentEvent) error
	ListByBooking(ctx context.Context, bookingID uint) ([]model.PaymentEvent, error)
}

type paymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository creates a new payment event repository.
func NewPaymentEventRepository(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepository{db: db}
}

// Create creates a new payment event entry.
func (r *paymentEventRepository) Create(ctx context.Context, event *model.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CreateBatch creates multiple payment events in a single statement batch.
func (r *paymentEventRepository) CreateBatch(ctx context.Context, events []model.PaymentEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(events, 100).Error
}

// ListByBooking returns the audit trail of a booking, oldest first.
func (r *paymentEventRepository) ListByBooking(ctx context.Context, bookingID uint) ([]model.PaymentEvent, error) {
	var events []model.PaymentEvent
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).
		Order("created_at").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
