package service

import (
	"context"
	"time"

	"bookingcore/internal/model"
	"bookingcore/internal/repository"
)

// DefaultPendingGraceWindow is how long an unpaid pending booking keeps its dates.
const DefaultPendingGraceWindow = 15 * time.Minute

// ReservationConflictChecker decides whether a date range of a property is free.
type ReservationConflictChecker struct {
	grace time.Duration
	now   func() time.Time
}

// NewReservationConflictChecker creates a checker with the given pending grace window.
func NewReservationConflictChecker(grace time.Duration) *ReservationConflictChecker {
	if grace <= 0 {
		grace = DefaultPendingGraceWindow
	}
	return &ReservationConflictChecker{grace: grace, now: time.Now}
}

// HasConflict reports whether [checkIn, checkOut) overlaps a blocking booking.
// Properties that allow multiple bookings never conflict.
func (c *ReservationConflictChecker) HasConflict(ctx context.Context, bookings repository.BookingRepository, propertyID uint, checkIn, checkOut time.Time, allowsMultiple bool) (bool, error) {
	if allowsMultiple {
		return false, nil
	}
	blocking, err := c.Blocking(ctx, bookings, propertyID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return len(blocking) > 0, nil
}

// ConflictsWithOthers reports whether a booking's own dates overlap another
// blocking booking. The booking itself is ignored.
func (c *ReservationConflictChecker) ConflictsWithOthers(ctx context.Context, bookings repository.BookingRepository, booking *model.Booking, allowsMultiple bool) (bool, error) {
	if allowsMultiple {
		return false, nil
	}
	blocking, err := c.Blocking(ctx, bookings, booking.PropertyID, booking.CheckIn, booking.CheckOut)
	if err != nil {
		return false, err
	}
	for _, b := range blocking {
		if b.ID != booking.ID {
			return true, nil
		}
	}
	return false, nil
}

// Blocking lists the bookings occupying any part of [from, to).
func (c *ReservationConflictChecker) Blocking(ctx context.Context, bookings repository.BookingRepository, propertyID uint, from, to time.Time) ([]model.Booking, error) {
	now := c.now()
	found, err := bookings.FindBlocking(ctx, propertyID, from, to, now.Add(-c.grace))
	if err != nil {
		return nil, err
	}

	// The query already filters; re-check so the rule lives in one place.
	out := found[:0]
	for _, b := range found {
		if b.Overlaps(from, to) && b.BlocksAt(now, c.grace) {
			out = append(out, b)
		}
	}
	return out, nil
}
