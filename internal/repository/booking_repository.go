package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookingcore/internal/model"
)

// BookingRepository defines booking persistence operations.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	Update(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id uint) (*model.Booking, error)
	// FindByIDForUpdate takes a row lock on the booking for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Booking, error)
	FindByReference(ctx context.Context, reference string) (*model.Booking, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	// FindBlocking returns bookings of the property that overlap [checkIn, checkOut)
	// and are Confirmed or Blocked, or Pending and created after pendingSince.
	FindBlocking(ctx context.Context, propertyID uint, checkIn, checkOut, pendingSince time.Time) ([]model.Booking, error)
}

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create creates a new booking.
func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// Update saves all booking fields.
func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

// FindByID finds a booking by ID.
func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*model.Booking, error) {
	var booking model.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByIDForUpdate finds a booking by ID with row-level lock for update.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Booking, error) {
	var booking model.Booking
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByReference finds a booking by its public reference.
func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*model.Booking, error) {
	var booking model.Booking
	if err := r.db.WithContext(ctx).Where("booking_reference = ?", reference).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// ReferenceExists reports whether a booking reference is taken.
func (r *bookingRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("booking_reference = ?", reference).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindBlocking lists bookings occupying any part of [checkIn, checkOut).
func (r *bookingRepository) FindBlocking(ctx context.Context, propertyID uint, checkIn, checkOut, pendingSince time.Time) ([]model.Booking, error) {
	group := r.db.Session(&gorm.Session{NewDB: true})
	blocking := model.StoredSpellings(model.BookingStatusConfirmed, model.BookingStatusBlocked)
	pending := model.StoredSpellings(model.BookingStatusPending)

	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn).
		Where(group.Where("status IN ?", blocking).
			Or("status IN ? AND created_at > ?", pending, pendingSince)).
		Order("check_in").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
