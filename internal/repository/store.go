package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that take part in a booking transaction.
type Store interface {
	Bookings() BookingRepository
	Properties() PropertyRepository
	Earnings() EarningRepository
	Notifications() NotificationRepository
	// WithTransaction runs fn inside a database transaction. The Store passed
	// to fn is bound to the transaction; returning an error rolls it back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Bookings() BookingRepository {
	return &bookingRepository{db: s.db}
}

func (s *gormStore) Properties() PropertyRepository {
	return &propertyRepository{db: s.db}
}

func (s *gormStore) Earnings() EarningRepository {
	return &earningRepository{db: s.db}
}

func (s *gormStore) Notifications() NotificationRepository {
	return &notificationRepository{db: s.db}
}

// WithTransaction executes a function within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}
