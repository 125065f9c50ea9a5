package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"bookingcore/internal/model"
	"bookingcore/internal/repository"
)

// Notifier tells the guest and vendor a booking is confirmed.
type Notifier interface {
	BookingConfirmed(ctx context.Context, tx repository.Store, booking *model.Booking) error
}

// OutboxNotifier queues confirmation messages in the notifications table.
// Delivery is done by whatever drains the outbox.
type OutboxNotifier struct {
	logger *logrus.Logger
}

// NewOutboxNotifier creates an outbox notifier.
func NewOutboxNotifier(logger *logrus.Logger) *OutboxNotifier {
	return &OutboxNotifier{logger: logger}
}

// BookingConfirmed writes one booking_confirmed row per booking.
func (n *OutboxNotifier) BookingConfirmed(ctx context.Context, tx repository.Store, booking *model.Booking) error {
	notification := &model.Notification{
		BookingID: booking.ID,
		Kind:      model.NotificationBookingConfirmed,
		Recipient: booking.Mobile,
		Email:     booking.Email,
		Message:   confirmationMessage(booking),
	}
	if err := tx.Notifications().Create(ctx, notification); err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	n.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
	}).Info("booking confirmation queued")
	return nil
}

func confirmationMessage(b *model.Booking) string {
	return fmt.Sprintf("Hi %s, your booking %s from %s to %s is confirmed. Total: %s",
		b.CustomerName,
		b.BookingReference,
		b.CheckIn.Format(model.DateLayout),
		b.CheckOut.Format(model.DateLayout),
		b.TotalAmount.StringFixed(2),
	)
}
