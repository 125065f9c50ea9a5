package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingcore/internal/model"
)

func TestReservationConflictChecker_GraceWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just created", 0, true},
		{"inside window", 14*time.Minute + 59*time.Second, true},
		{"at window edge", 15 * time.Minute, false},
		{"abandoned", 16 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.seedBooking(model.Booking{
				PropertyID: 42,
				CheckIn:    day("2024-06-10"),
				CheckOut:   day("2024-06-12"),
				Status:     model.BookingStatusPending,
				CreatedAt:  now.Add(-tt.age),
			})

			checker := NewReservationConflictChecker(15 * time.Minute)
			checker.now = func() time.Time { return now }

			got, err := checker.HasConflict(context.Background(), store.Bookings(), 42, day("2024-06-11"), day("2024-06-12"), false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReservationConflictChecker_StatusesAndRanges(t *testing.T) {
	store := newMemStore()
	for _, st := range []model.BookingStatus{model.BookingStatusConfirmed, model.BookingStatusCancelled} {
		store.seedBooking(model.Booking{PropertyID: 42, CheckIn: day("2024-06-10"), CheckOut: day("2024-06-12"), Status: st})
	}
	store.seedBooking(model.Booking{PropertyID: 7, CheckIn: day("2024-06-20"), CheckOut: day("2024-06-25"), Status: model.BookingStatusBlocked})

	checker := NewReservationConflictChecker(0)
	ctx := context.Background()

	cases := []struct {
		property uint
		in, out  string
		multi    bool
		want     bool
	}{
		{42, "2024-06-09", "2024-06-10", false, false},
		{42, "2024-06-12", "2024-06-13", false, false},
		{42, "2024-06-11", "2024-06-12", false, true},
		{42, "2024-06-01", "2024-06-30", false, true},
		{42, "2024-06-11", "2024-06-12", true, false},
		{7, "2024-06-24", "2024-06-26", false, true},
		{7, "2024-06-10", "2024-06-12", false, false},
	}
	for _, c := range cases {
		got, err := checker.HasConflict(ctx, store.Bookings(), c.property, day(c.in), day(c.out), c.multi)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "property %d %s..%s", c.property, c.in, c.out)
	}
}

func TestReservationConflictChecker_ConflictsWithOthers(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	own := store.seedBooking(model.Booking{
		PropertyID: 42,
		CheckIn:    day("2024-06-10"),
		CheckOut:   day("2024-06-12"),
		Status:     model.BookingStatusPending,
		CreatedAt:  now.Add(-time.Minute),
	})

	checker := NewReservationConflictChecker(15 * time.Minute)
	checker.now = func() time.Time { return now }
	ctx := context.Background()

	got, err := checker.ConflictsWithOthers(ctx, store.Bookings(), &own, false)
	require.NoError(t, err)
	assert.False(t, got, "a booking never conflicts with itself")

	store.seedBooking(model.Booking{
		PropertyID: 42,
		CheckIn:    day("2024-06-11"),
		CheckOut:   day("2024-06-13"),
		Status:     model.BookingStatusConfirmed,
		CreatedAt:  now,
	})

	got, err = checker.ConflictsWithOthers(ctx, store.Bookings(), &own, false)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = checker.ConflictsWithOthers(ctx, store.Bookings(), &own, true)
	require.NoError(t, err)
	assert.False(t, got, "multi-unit properties never conflict")
}
