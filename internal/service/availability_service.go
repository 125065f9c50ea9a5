package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bookingcore/internal/cache"
	apperrors "bookingcore/internal/errors"
	"bookingcore/internal/model"
	"bookingcore/internal/repository"
)

const availabilityCacheTTL = time.Minute

// Availability type and status values.
const (
	AvailabilityExclusive = "exclusive"
	AvailabilityMulti     = "multi_booking"

	AvailabilityStatusAvailable       = "available"
	AvailabilityStatusPartiallyBooked = "partially_booked"
)

// DateRange is a half-open range of dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Availability is the calendar view of a property.
type Availability struct {
	PropertyID    uint        `json:"property_id"`
	Type          string      `json:"availability_type"`
	Status        string      `json:"status"`
	BlockedDates  []string    `json:"blocked_dates"`
	BlockedRanges []DateRange `json:"blocked_ranges"`
}

// AvailabilityInvalidator drops cached calendars of a property.
type AvailabilityInvalidator interface {
	Invalidate(ctx context.Context, propertyID uint)
}

// AvailabilityService answers calendar queries.
type AvailabilityService interface {
	AvailabilityInvalidator
	GetAvailability(ctx context.Context, propertyID uint, start, end time.Time) (*Availability, error)
}

type availabilityService struct {
	store     repository.Store
	conflicts *ReservationConflictChecker
	cache     *cache.Client
}

// NewAvailabilityService creates a new availability service.
func NewAvailabilityService(store repository.Store, conflicts *ReservationConflictChecker, cache *cache.Client) AvailabilityService {
	return &availabilityService{
		store:     store,
		conflicts: conflicts,
		cache:     cache,
	}
}

func versionKey(propertyID uint) string {
	return fmt.Sprintf("availability:version:%d", propertyID)
}

func (s *availabilityService) cacheKey(ctx context.Context, propertyID uint, start, end time.Time) string {
	return fmt.Sprintf("availability:%d:%d:%s:%s",
		propertyID, s.cache.Version(ctx, versionKey(propertyID)),
		start.Format(model.DateLayout), end.Format(model.DateLayout))
}

// Invalidate bumps the property's cache version.
func (s *availabilityService) Invalidate(ctx context.Context, propertyID uint) {
	s.cache.Bump(ctx, versionKey(propertyID))
}

// GetAvailability lists dates blocked in [start, end).
func (s *availabilityService) GetAvailability(ctx context.Context, propertyID uint, start, end time.Time) (*Availability, error) {
	if !end.After(start) {
		return nil, apperrors.NewValidationError("end", "must be after start")
	}

	property, err := s.store.Properties().FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, err
	}

	if property.AllowsMultipleBookings() {
		return &Availability{
			PropertyID:    propertyID,
			Type:          AvailabilityMulti,
			Status:        AvailabilityStatusAvailable,
			BlockedDates:  []string{},
			BlockedRanges: []DateRange{},
		}, nil
	}

	key := s.cacheKey(ctx, propertyID, start, end)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached Availability
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	bookings, err := s.conflicts.Blocking(ctx, s.store.Bookings(), propertyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load blocking bookings: %w", err)
	}

	result := buildAvailability(propertyID, bookings, start, end)

	if payload, err := json.Marshal(result); err == nil {
		_ = s.cache.Set(ctx, key, payload, availabilityCacheTTL)
	}
	return result, nil
}

func buildAvailability(propertyID uint, bookings []model.Booking, start, end time.Time) *Availability {
	result := &Availability{
		PropertyID:    propertyID,
		Type:          AvailabilityExclusive,
		Status:        AvailabilityStatusAvailable,
		BlockedDates:  []string{},
		BlockedRanges: make([]DateRange, 0, len(bookings)),
	}

	seen := make(map[string]bool)
	for _, b := range bookings {
		result.BlockedRanges = append(result.BlockedRanges, DateRange{
			Start: b.CheckIn.Format(model.DateLayout),
			End:   b.CheckOut.Format(model.DateLayout),
		})
		for d := b.CheckIn; d.Before(b.CheckOut); d = d.AddDate(0, 0, 1) {
			if d.Before(start) || !d.Before(end) {
				continue
			}
			key := d.Format(model.DateLayout)
			if !seen[key] {
				seen[key] = true
				result.BlockedDates = append(result.BlockedDates, key)
			}
		}
	}

	if len(result.BlockedDates) > 0 {
		result.Status = AvailabilityStatusPartiallyBooked
	}
	return result
}
