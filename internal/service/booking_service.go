package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	apperrors "bookingcore/internal/errors"
	"bookingcore/internal/gateway"
	"bookingcore/internal/model"
	"bookingcore/internal/repository"
)

// EventRecorder accepts payment audit events.
type EventRecorder interface {
	Record(ctx context.Context, event model.PaymentEvent)
}

// CreateBookingInput is a validated booking request.
type CreateBookingInput struct {
	PropertyID     uint
	CheckIn        time.Time
	CheckOut       time.Time
	GuestCount     int
	CustomerName   string
	Mobile         string
	Email          *string
	BaseAmount     decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	CouponCode     *string
	PaymentMethod  model.PaymentMethod
	BookingSource  model.BookingSource
}

// CreateBookingResult is returned once the booking is committed.
// RedirectURL is empty for pay-at-property bookings.
type CreateBookingResult struct {
	Booking     *model.Booking
	RedirectURL string
}

// BlockDatesInput describes a manual date block by an operator.
type BlockDatesInput struct {
	PropertyID uint
	CheckIn    time.Time
	CheckOut   time.Time
	Note       string
	Source     model.BookingSource
	// VendorID restricts the block to the vendor's own properties when set.
	VendorID *uint
}

// BookingService creates and manages reservations.
type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error)
	BlockDates(ctx context.Context, in BlockDatesInput) (*model.Booking, error)
	CancelBooking(ctx context.Context, id uint, vendorID *uint) (*model.Booking, error)
	GetByReference(ctx context.Context, reference string) (*model.Booking, error)
}

// BookingServiceDeps are the collaborators of the booking coordinator.
type BookingServiceDeps struct {
	Store           repository.Store
	Conflicts       *ReservationConflictChecker
	Gateway         gateway.Initiator
	Commission      CommissionCalculator
	Notifier        Notifier
	Events          EventRecorder
	Availability    AvailabilityInvalidator
	Logger          *logrus.Logger
	InitiateTimeout time.Duration
}

type bookingService struct {
	BookingServiceDeps
	random io.Reader
}

// NewBookingService creates the booking transaction coordinator.
func NewBookingService(deps BookingServiceDeps) BookingService {
	if deps.InitiateTimeout <= 0 {
		deps.InitiateTimeout = 15 * time.Second
	}
	return &bookingService{BookingServiceDeps: deps, random: rand.Reader}
}

func validateBooking(in *CreateBookingInput) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Mobile = strings.TrimSpace(in.Mobile)

	switch {
	case in.PropertyID == 0:
		return apperrors.NewValidationError("property_id", "is required")
	case in.CheckIn.IsZero() || in.CheckOut.IsZero():
		return apperrors.NewValidationError("check_in", "check_in and check_out are required")
	case !in.CheckOut.After(in.CheckIn):
		return apperrors.NewValidationError("check_out", "must be after check_in")
	case in.GuestCount < 1:
		return apperrors.NewValidationError("guest_count", "must be at least 1")
	case in.CustomerName == "":
		return apperrors.NewValidationError("customer_name", "is required")
	case in.Mobile == "":
		return apperrors.NewValidationError("mobile", "is required")
	case in.PaymentMethod == "":
		return apperrors.NewValidationError("payment_method", "is required")
	}

	for field, amount := range map[string]decimal.Decimal{
		"base_amount":     in.BaseAmount,
		"discount_amount": in.DiscountAmount,
		"tax_amount":      in.TaxAmount,
		"total_amount":    in.TotalAmount,
	} {
		if amount.IsNegative() {
			return apperrors.NewValidationError(field, "must not be negative")
		}
	}
	if in.PaymentMethod.RequiresGateway() && !in.TotalAmount.IsPositive() {
		return apperrors.NewValidationError("total_amount", "must be positive for online payment")
	}
	if in.BaseAmount.IsPositive() {
		expected := in.BaseAmount.Sub(in.DiscountAmount).Add(in.TaxAmount)
		if !expected.Equal(in.TotalAmount) {
			return apperrors.NewValidationError("total_amount", fmt.Sprintf("must equal base - discount + tax (%s)", expected.StringFixed(2)))
		}
	}
	if in.BookingSource == "" {
		in.BookingSource = model.BookingSourceCustomerApp
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// lockProperty takes the per-property lock that serializes reservations.
func lockProperty(ctx context.Context, tx repository.Store, id uint) (*model.Property, error) {
	property, err := tx.Properties().FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("lock property: %w", err)
	}
	return property, nil
}

// CreateBooking persists a booking and, for online payment, initiates it with
// the gateway inside the same transaction. A failed initiation rolls the
// booking back so no row is left behind.
func (s *bookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error) {
	if err := validateBooking(&in); err != nil {
		return nil, err
	}
	in.CheckIn, in.CheckOut = dateOnly(in.CheckIn), dateOnly(in.CheckOut)

	var result CreateBookingResult
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		property, err := lockProperty(ctx, tx, in.PropertyID)
		if err != nil {
			return err
		}
		if !property.Active {
			return apperrors.ErrPropertyNotFound
		}

		conflict, err := s.Conflicts.HasConflict(ctx, tx.Bookings(), property.ID, in.CheckIn, in.CheckOut, property.AllowsMultipleBookings())
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if conflict {
			return apperrors.ErrDateConflict
		}

		reference, err := uniqueReference(ctx, tx.Bookings(), s.random)
		if err != nil {
			return err
		}

		booking := &model.Booking{
			BookingReference: reference,
			PropertyID:       property.ID,
			CheckIn:          in.CheckIn,
			CheckOut:         in.CheckOut,
			GuestCount:       in.GuestCount,
			CustomerName:     in.CustomerName,
			Mobile:           in.Mobile,
			Email:            in.Email,
			BaseAmount:       in.BaseAmount,
			DiscountAmount:   in.DiscountAmount,
			TaxAmount:        in.TaxAmount,
			TotalAmount:      in.TotalAmount,
			CouponCode:       in.CouponCode,
			Status:           model.BookingStatusPending,
			PaymentStatus:    model.PaymentStatusPending,
			PaymentMethod:    in.PaymentMethod,
			BookingSource:    in.BookingSource,
		}
		if !in.PaymentMethod.RequiresGateway() {
			booking.Status = model.BookingStatusConfirmed
		}
		if err := tx.Bookings().Create(ctx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		result.Booking = booking

		if !in.PaymentMethod.RequiresGateway() {
			return nil
		}

		initCtx, cancel := context.WithTimeout(ctx, s.InitiateTimeout)
		defer cancel()
		res := s.Gateway.Initiate(initCtx, booking, "")
		s.recordInitiation(ctx, booking, res)
		if err := res.Err(); err != nil {
			return err
		}

		merchantTxnID := res.MerchantTransactionID
		booking.MerchantTxnID = &merchantTxnID
		if res.TransactionID != "" {
			txnID := res.TransactionID
			booking.TransactionID = &txnID
		}
		if err := tx.Bookings().Update(ctx, booking); err != nil {
			return fmt.Errorf("store merchant transaction: %w", err)
		}
		result.RedirectURL = res.RedirectURL
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Availability.Invalidate(ctx, result.Booking.PropertyID)

	if result.Booking.Status == model.BookingStatusConfirmed {
		s.fireConfirmed(ctx, result.Booking)
	}

	s.Logger.WithFields(logrus.Fields{
		"booking_id":        result.Booking.ID,
		"booking_reference": result.Booking.BookingReference,
		"property_id":       result.Booking.PropertyID,
		"payment_method":    result.Booking.PaymentMethod,
	}).Info("booking created")
	return &result, nil
}

func (s *bookingService) recordInitiation(ctx context.Context, booking *model.Booking, res gateway.InitiateResult) {
	id := booking.ID
	event := model.PaymentEvent{
		BookingID:             &id,
		MerchantTransactionID: res.MerchantTransactionID,
		Kind:                  model.PaymentEventInitiation,
		GatewayCode:           res.Code,
		Outcome:               model.PaymentEventInitiated,
	}
	if !res.Success {
		event.Outcome = model.PaymentEventFailed
		event.Detail = res.Reason
	}
	s.Events.Record(ctx, event)
}

// fireConfirmed runs the confirmation side effects of a pay-at-property booking
// after it is committed. Failures are logged; the booking stands.
func (s *bookingService) fireConfirmed(ctx context.Context, booking *model.Booking) {
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return runConfirmationEffects(ctx, tx, s.Commission, s.Notifier, booking)
	})
	if err != nil {
		s.Logger.WithError(err).WithField("booking_id", booking.ID).Error("booking confirmation side effects failed")
	}
}

func runConfirmationEffects(ctx context.Context, tx repository.Store, commission CommissionCalculator, notifier Notifier, booking *model.Booking) error {
	if err := commission.Accrue(ctx, tx, booking); err != nil {
		return fmt.Errorf("accrue commission: %w", err)
	}
	if err := notifier.BookingConfirmed(ctx, tx, booking); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// BlockDates reserves a range without a guest, for maintenance or offline stays.
func (s *bookingService) BlockDates(ctx context.Context, in BlockDatesInput) (*model.Booking, error) {
	if in.CheckIn.IsZero() || in.CheckOut.IsZero() || !in.CheckOut.After(in.CheckIn) {
		return nil, apperrors.NewValidationError("check_out", "must be after check_in")
	}
	if !in.Source.Manual() {
		return nil, apperrors.NewValidationError("booking_source", "must be vendor_manual or admin_manual")
	}
	in.CheckIn, in.CheckOut = dateOnly(in.CheckIn), dateOnly(in.CheckOut)

	var booking *model.Booking
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		property, err := lockProperty(ctx, tx, in.PropertyID)
		if err != nil {
			return err
		}
		if !ownedBy(property, in.VendorID) {
			return apperrors.ErrPropertyNotFound
		}

		conflict, err := s.Conflicts.HasConflict(ctx, tx.Bookings(), property.ID, in.CheckIn, in.CheckOut, property.AllowsMultipleBookings())
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if conflict {
			return apperrors.ErrDateConflict
		}

		reference, err := uniqueReference(ctx, tx.Bookings(), s.random)
		if err != nil {
			return err
		}

		name := strings.TrimSpace(in.Note)
		if name == "" {
			name = "Blocked"
		}
		booking = &model.Booking{
			BookingReference: reference,
			PropertyID:       property.ID,
			CheckIn:          in.CheckIn,
			CheckOut:         in.CheckOut,
			GuestCount:       1,
			CustomerName:     name,
			TotalAmount:      decimal.Zero,
			Status:           model.BookingStatusBlocked,
			PaymentStatus:    model.PaymentStatusPending,
			PaymentMethod:    model.PaymentMethodHotel,
			BookingSource:    in.Source,
		}
		return tx.Bookings().Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.Availability.Invalidate(ctx, booking.PropertyID)
	return booking, nil
}

// CancelBooking moves a booking to Cancelled. Payment status is left as is.
func (s *bookingService) CancelBooking(ctx context.Context, id uint, vendorID *uint) (*model.Booking, error) {
	var booking *model.Booking
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		booking, err = tx.Bookings().FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBookingNotFound
			}
			return fmt.Errorf("lock booking: %w", err)
		}

		if vendorID != nil {
			property, err := tx.Properties().FindByID(ctx, booking.PropertyID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load property: %w", err)
			}
			if property == nil || !ownedBy(property, vendorID) {
				return apperrors.ErrBookingNotFound
			}
		}

		if booking.Status == model.BookingStatusCancelled {
			return fmt.Errorf("booking %d is already cancelled: %w", id, apperrors.ErrInvalidTransition)
		}
		booking.Status = model.BookingStatusCancelled
		return tx.Bookings().Update(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.Availability.Invalidate(ctx, booking.PropertyID)
	s.Logger.WithField("booking_id", booking.ID).Info("booking cancelled")
	return booking, nil
}

// GetByReference finds a booking by its public reference.
func (s *bookingService) GetByReference(ctx context.Context, reference string) (*model.Booking, error) {
	booking, err := s.Store.Bookings().FindByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func ownedBy(property *model.Property, vendorID *uint) bool {
	if vendorID == nil {
		return true
	}
	return property.VendorID != nil && *property.VendorID == *vendorID
}
