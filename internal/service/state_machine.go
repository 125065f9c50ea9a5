package service

import (
	"bookingcore/internal/gateway"
	"bookingcore/internal/model"
)

// Transition describes what a gateway status did to a booking.
type Transition struct {
	FromStatus  model.BookingStatus
	ToStatus    model.BookingStatus
	FromPayment model.PaymentStatus
	ToPayment   model.PaymentStatus
	// Changed is false for no-ops such as replayed callbacks.
	Changed bool
	// Confirmed is true only on the first move to paid; side effects are gated on it.
	Confirmed bool
}

// ApplyGatewayStatus runs the payment state machine on booking in place.
//
//	PAYMENT_SUCCESS, payment not yet paid -> paid, Confirmed, transaction id recorded
//	PAYMENT_PENDING                       -> payment stays pending, status unchanged
//	anything else, payment still pending  -> failed, Cancelled
//
// A paid booking never moves again, and a failed payment never returns to pending.
func ApplyGatewayStatus(booking *model.Booking, status gateway.Status, transactionID string) Transition {
	t := Transition{
		FromStatus:  booking.Status,
		ToStatus:    booking.Status,
		FromPayment: booking.PaymentStatus,
		ToPayment:   booking.PaymentStatus,
	}

	switch status.Outcome() {
	case gateway.OutcomePaid:
		if booking.PaymentStatus == model.PaymentStatusPaid {
			return t
		}
		booking.PaymentStatus = model.PaymentStatusPaid
		booking.Status = model.BookingStatusConfirmed
		if transactionID != "" {
			id := transactionID
			booking.TransactionID = &id
		}
		t.Confirmed = true

	case gateway.OutcomePending:
		return t

	default:
		if booking.PaymentStatus != model.PaymentStatusPending {
			return t
		}
		booking.PaymentStatus = model.PaymentStatusFailed
		booking.Status = model.BookingStatusCancelled
	}

	t.ToStatus = booking.Status
	t.ToPayment = booking.PaymentStatus
	t.Changed = true
	return t
}
