package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for reservation dates.
const DateLayout = "2006-01-02"

// Booking is a reservation of a property for a half-open date range.
type Booking struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	BookingReference string          `json:"booking_reference" gorm:"size:16;not null;uniqueIndex"`
	PropertyID       uint            `json:"property_id" gorm:"not null;index:idx_bookings_property_dates,priority:1"`
	CheckIn          time.Time       `json:"check_in" gorm:"type:date;not null;index:idx_bookings_property_dates,priority:2"`
	CheckOut         time.Time       `json:"check_out" gorm:"type:date;not null;index:idx_bookings_property_dates,priority:3"`
	GuestCount       int             `json:"guest_count" gorm:"not null;default:1"`
	CustomerName     string          `json:"customer_name" gorm:"size:255;not null"`
	Mobile           string          `json:"mobile" gorm:"size:20;not null"`
	Email            *string         `json:"email,omitempty" gorm:"size:255"`
	BaseAmount       decimal.Decimal `json:"base_amount" gorm:"type:decimal(12,2);not null;default:0"`
	DiscountAmount   decimal.Decimal `json:"discount_amount" gorm:"type:decimal(12,2);not null;default:0"`
	TaxAmount        decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	CouponCode       *string         `json:"coupon_code,omitempty" gorm:"size:64"`
	Status           BookingStatus   `json:"status" gorm:"type:varchar(20);not null;default:'Pending';index"`
	PaymentStatus    PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentMethod    PaymentMethod   `json:"payment_method" gorm:"type:varchar(20);not null"`
	MerchantTxnID    *string         `json:"merchant_transaction_id,omitempty" gorm:"column:merchant_transaction_id;size:64;index"`
	TransactionID    *string         `json:"transaction_id,omitempty" gorm:"size:64;index"`
	BookingSource    BookingSource   `json:"booking_source" gorm:"type:varchar(32);not null;default:'customer_app'"`
	CreatedAt        time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Nights returns the number of nights covered by the booking.
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// Overlaps reports whether the half-open ranges [CheckIn, CheckOut) and
// [checkIn, checkOut) intersect. Back-to-back stays do not overlap.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}

// BlocksAt reports whether the booking occupies its dates at time now,
// given the grace window for unpaid pending bookings.
func (b *Booking) BlocksAt(now time.Time, grace time.Duration) bool {
	if b.Status.Blocking() {
		return true
	}
	return b.Status == BookingStatusPending && b.CreatedAt.After(now.Add(-grace))
}
