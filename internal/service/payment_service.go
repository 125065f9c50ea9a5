package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bookingcore/internal/config"
	apperrors "bookingcore/internal/errors"
	"bookingcore/internal/gateway"
	"bookingcore/internal/logging"
	"bookingcore/internal/model"
	"bookingcore/internal/repository"
)

// Browser landing pages after payment.
const (
	RedirectSuccess = "/booking/success"
	RedirectPending = "/booking/pending"
	RedirectFailed  = "/booking/failed"
)

// CallbackResult is what a callback, status poll or simulation did.
type CallbackResult struct {
	Booking    *model.Booking
	Transition Transition
	// Replayed is true when a verified callback changed nothing.
	Replayed bool
	// RedirectURL is where the guest's browser should land.
	RedirectURL string
}

// PaymentService applies gateway results to bookings.
type PaymentService interface {
	// HandleCallback applies a parsed callback. Only verified callbacks change state.
	HandleCallback(ctx context.Context, cb gateway.ParsedCallback, sourceIP string) (*CallbackResult, error)
	// RecordRejection logs and audits a callback that failed verification.
	RecordRejection(ctx context.Context, err error, sourceIP string)
	// Reconcile polls the gateway for a merchant transaction and applies the answer.
	Reconcile(ctx context.Context, merchantTransactionID string) (*CallbackResult, error)
	// Simulate feeds a signed callback for a booking through the verifier.
	// Unavailable in production.
	Simulate(ctx context.Context, bookingID uint, status gateway.Status) (*CallbackResult, error)
}

// PaymentServiceDeps are the collaborators of the payment service.
type PaymentServiceDeps struct {
	Store        repository.Store
	Conflicts    *ReservationConflictChecker
	Status       gateway.StatusChecker
	Verifier     *gateway.Verifier
	Commission   CommissionCalculator
	Notifier     Notifier
	Events       EventRecorder
	Availability AvailabilityInvalidator
	Logger       *logrus.Logger
	Gateway      config.GatewayConfig
	FrontendURL  string
	Production   bool
}

type paymentService struct {
	PaymentServiceDeps
	now func() time.Time
}

// NewPaymentService creates a new payment service.
func NewPaymentService(deps PaymentServiceDeps) PaymentService {
	return &paymentService{PaymentServiceDeps: deps, now: time.Now}
}

// verifiedUpdate is a gateway result that may change payment state.
type verifiedUpdate struct {
	bookingID     uint
	status        gateway.Status
	transactionID string
	merchantTxnID string
	payload       []byte
	kind          model.PaymentEventKind
	sourceIP      string
}

func (s *paymentService) HandleCallback(ctx context.Context, cb gateway.ParsedCallback, sourceIP string) (*CallbackResult, error) {
	switch c := cb.(type) {
	case *gateway.ServerCallback:
		return s.apply(ctx, verifiedUpdate{
			bookingID:     c.BookingID,
			status:        c.GatewayStatus,
			transactionID: c.TransactionID,
			merchantTxnID: c.MerchantTransactionID,
			payload:       c.Payload,
			kind:          model.PaymentEventCallback,
			sourceIP:      sourceIP,
		})
	case *gateway.RedirectCallback:
		return s.observeRedirect(ctx, c, sourceIP)
	default:
		return nil, apperrors.Malformed("unsupported callback type %T", cb)
	}
}

// apply locks the booking and runs the state machine. Confirmation side
// effects run in the same transaction, only on the first move to paid.
func (s *paymentService) apply(ctx context.Context, u verifiedUpdate) (*CallbackResult, error) {
	var result CallbackResult
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		booking, err := tx.Bookings().FindByIDForUpdate(ctx, u.bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBookingNotFound
			}
			return fmt.Errorf("lock booking: %w", err)
		}

		entry := s.Logger.WithFields(logrus.Fields{
			"booking_id":              booking.ID,
			"merchant_transaction_id": u.merchantTxnID,
			"gateway_code":            string(u.status),
		})
		if booking.MerchantTxnID != nil && *booking.MerchantTxnID != u.merchantTxnID {
			entry.WithField("expected_merchant_transaction_id", *booking.MerchantTxnID).
				Warn("callback for an earlier payment attempt")
		}

		t := ApplyGatewayStatus(booking, u.status, u.transactionID)
		if t.Confirmed && !t.FromStatus.Blocking() {
			if err := s.recheckDates(ctx, tx, booking, &t, entry); err != nil {
				return err
			}
		}

		if t.Changed {
			if err := tx.Bookings().Update(ctx, booking); err != nil {
				return fmt.Errorf("update booking: %w", err)
			}
		}
		if t.Confirmed {
			if err := runConfirmationEffects(ctx, tx, s.Commission, s.Notifier, booking); err != nil {
				return err
			}
		}

		result.Booking = booking
		result.Transition = t
		result.Replayed = !t.Changed
		return nil
	})
	if err != nil {
		outcome := model.PaymentEventFailed
		if errors.Is(err, apperrors.ErrBookingNotFound) {
			outcome = model.PaymentEventRejected
			s.Logger.WithFields(logrus.Fields{
				"booking_id":              u.bookingID,
				"merchant_transaction_id": u.merchantTxnID,
				"source_ip":               u.sourceIP,
			}).Warn("payment callback for unknown booking")
		}
		s.record(ctx, u, nil, outcome, err.Error())
		return nil, err
	}

	outcome := model.PaymentEventApplied
	if result.Replayed {
		outcome = model.PaymentEventReplayed
	}
	s.record(ctx, u, &u.bookingID, outcome, "")

	if result.Transition.FromStatus != result.Transition.ToStatus {
		s.Availability.Invalidate(ctx, result.Booking.PropertyID)
	}

	s.Logger.WithFields(logrus.Fields{
		"booking_id":     result.Booking.ID,
		"gateway_code":   string(u.status),
		"status":         result.Booking.Status,
		"payment_status": result.Booking.PaymentStatus,
		"replayed":       result.Replayed,
		"kind":           u.kind,
	}).Info("payment result applied")

	result.RedirectURL = s.redirectURL(result.Booking, u.status)
	return &result, nil
}

// recheckDates runs before a payment confirms a booking that did not hold its
// dates for sure: a cancelled one, or a pending one whose grace window may have
// lapsed. The payment is recorded either way, but the booking is only confirmed
// if no other booking took the dates meanwhile.
func (s *paymentService) recheckDates(ctx context.Context, tx repository.Store, booking *model.Booking, t *Transition, entry *logrus.Entry) error {
	property, err := lockProperty(ctx, tx, booking.PropertyID)
	if err != nil && !errors.Is(err, apperrors.ErrPropertyNotFound) {
		return err
	}
	allowsMultiple := property != nil && property.AllowsMultipleBookings()

	conflict, err := s.Conflicts.ConflictsWithOthers(ctx, tx.Bookings(), booking, allowsMultiple)
	if err != nil {
		return fmt.Errorf("check conflicts: %w", err)
	}
	if !conflict {
		return nil
	}

	booking.Status = model.BookingStatusCancelled
	t.ToStatus = model.BookingStatusCancelled
	t.Confirmed = false
	logging.Critical(entry.WithField("previous_status", t.FromStatus),
		"payment captured for a booking whose dates are taken, refund required")
	return nil
}

// observeRedirect decides the landing page for an unsigned browser redirect.
// It reads the booking but never writes it.
func (s *paymentService) observeRedirect(ctx context.Context, c *gateway.RedirectCallback, sourceIP string) (*CallbackResult, error) {
	u := verifiedUpdate{
		bookingID:     c.BookingID,
		status:        c.GatewayStatus,
		transactionID: c.TransactionID,
		merchantTxnID: c.MerchantTransactionID,
		kind:          model.PaymentEventRedirect,
		sourceIP:      sourceIP,
	}

	booking, err := s.Store.Bookings().FindByID(ctx, c.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.record(ctx, u, nil, model.PaymentEventRejected, apperrors.ErrBookingNotFound.Error())
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	s.record(ctx, u, &booking.ID, model.PaymentEventObserved, "")
	return &CallbackResult{
		Booking:     booking,
		Replayed:    true,
		RedirectURL: s.redirectURL(booking, c.GatewayStatus),
	}, nil
}

// redirectURL trusts the stored payment state over the reported code.
func (s *paymentService) redirectURL(booking *model.Booking, status gateway.Status) string {
	path := RedirectPending
	switch {
	case booking.PaymentStatus == model.PaymentStatusPaid:
		path = RedirectSuccess
	case booking.PaymentStatus == model.PaymentStatusFailed, status.Outcome() == gateway.OutcomeFailed:
		path = RedirectFailed
	}
	return s.FrontendURL + path + "?id=" + url.QueryEscape(strconv.FormatUint(uint64(booking.ID), 10))
}

func (s *paymentService) RecordRejection(ctx context.Context, err error, sourceIP string) {
	entry := s.Logger.WithError(err).WithField("source_ip", sourceIP)
	switch {
	case errors.Is(err, apperrors.ErrCallbackIntegrity):
		logging.Critical(entry, "payment callback failed integrity check")
	case errors.Is(err, apperrors.ErrGatewayConfiguration):
		entry.Error("payment callback received but gateway is not configured")
	default:
		entry.Warn("malformed payment callback")
	}

	s.Events.Record(ctx, model.PaymentEvent{
		Kind:     model.PaymentEventCallback,
		Outcome:  model.PaymentEventRejected,
		Detail:   err.Error(),
		SourceIP: sourceIP,
	})
}

func (s *paymentService) Reconcile(ctx context.Context, merchantTransactionID string) (*CallbackResult, error) {
	bookingID, err := gateway.ParseMerchantTransactionID(merchantTransactionID)
	if err != nil {
		return nil, apperrors.NewValidationError("merchant_transaction_id", err.Error())
	}

	status, err := s.Status.CheckStatus(ctx, merchantTransactionID)
	if err != nil {
		s.Logger.WithError(err).WithField("merchant_transaction_id", merchantTransactionID).Error("payment status poll failed")
		return nil, err
	}

	return s.apply(ctx, verifiedUpdate{
		bookingID:     bookingID,
		status:        status.Status,
		transactionID: status.TransactionID,
		merchantTxnID: status.MerchantTransactionID,
		payload:       status.Raw,
		kind:          model.PaymentEventStatusPoll,
	})
}

func (s *paymentService) Simulate(ctx context.Context, bookingID uint, status gateway.Status) (*CallbackResult, error) {
	if s.Production {
		return nil, apperrors.ErrNotAvailable
	}

	booking, err := s.Store.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	merchantTxnID := gateway.FormatMerchantTransactionID(booking.ID, strconv.FormatInt(s.now().Unix(), 10))
	if booking.MerchantTxnID != nil {
		merchantTxnID = *booking.MerchantTxnID
	}
	transactionID := fmt.Sprintf("SIM%d", s.now().UnixNano())

	response, checksum, err := gateway.EncodeCallback(s.Gateway, status, merchantTxnID, transactionID, gateway.MinorUnits(booking.TotalAmount))
	if err != nil {
		return nil, fmt.Errorf("encode simulated callback: %w", err)
	}
	cb, err := s.Verifier.VerifyEnvelope(response, checksum)
	if err != nil {
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"gateway_code": string(status),
	}).Warn("simulated payment callback")
	return s.HandleCallback(ctx, cb, "simulator")
}

func (s *paymentService) record(ctx context.Context, u verifiedUpdate, bookingID *uint, outcome model.PaymentEventOutcome, detail string) {
	event := model.PaymentEvent{
		BookingID:             bookingID,
		MerchantTransactionID: u.merchantTxnID,
		Kind:                  u.kind,
		GatewayCode:           string(u.status),
		Outcome:               outcome,
		Detail:                detail,
		SourceIP:              u.sourceIP,
	}
	if len(u.payload) > 0 {
		event.Payload = datatypes.JSON(u.payload)
	}
	s.Events.Record(ctx, event)
}
