package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// BookingStatus is the canonical reservation state.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
	BookingStatusBlocked   BookingStatus = "Blocked"
)

// bookingStatusAliases maps every spelling found in stored or submitted data
// to its canonical status. Keys are lower case.
var bookingStatusAliases = map[string]BookingStatus{
	"pending":         BookingStatusPending,
	"confirmed":       BookingStatusConfirmed,
	"booked":          BookingStatusConfirmed,
	"checkedin":       BookingStatusConfirmed,
	"checked_in":      BookingStatusConfirmed,
	"cancelled":       BookingStatusCancelled,
	"canceled":        BookingStatusCancelled,
	"blocked":         BookingStatusBlocked,
	"locked":          BookingStatusBlocked,
	"locked_by_admin": BookingStatusBlocked,
}

// ParseBookingStatus canonicalizes a status string.
func ParseBookingStatus(s string) (BookingStatus, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	if st, ok := bookingStatusAliases[key]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// Blocking reports whether a booking in this status occupies its dates
// regardless of age.
func (s BookingStatus) Blocking() bool {
	return s == BookingStatusConfirmed || s == BookingStatusBlocked
}

// StoredSpellings returns every stored spelling that canonicalizes to one of statuses.
// Used in queries so rows written before canonicalization still match.
func StoredSpellings(statuses ...BookingStatus) []string {
	want := make(map[BookingStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	out := make([]string, 0, len(bookingStatusAliases)*2)
	for alias, canonical := range bookingStatusAliases {
		if !want[canonical] {
			continue
		}
		out = append(out, alias)
		if cased := titleCase(alias); cased != alias {
			out = append(out, cased)
		}
	}
	for _, s := range statuses {
		out = appendUnique(out, string(s))
	}
	return out
}

// Scan implements sql.Scanner, canonicalizing on read.
func (s *BookingStatus) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*s = ""
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported booking status type %T", value)
	}
	st, err := ParseBookingStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Value implements driver.Valuer.
func (s BookingStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// PaymentStatus is the payment side of a booking. It only moves forward.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// ParsePaymentStatus canonicalizes a payment status string.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return PaymentStatusPending, nil
	case "paid", "success", "completed":
		return PaymentStatusPaid, nil
	case "failed", "failure":
		return PaymentStatusFailed, nil
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}

// Scan implements sql.Scanner, canonicalizing on read.
func (s *PaymentStatus) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported payment status type %T", value)
	}
	st, err := ParsePaymentStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Value implements driver.Valuer.
func (s PaymentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// PaymentMethod is how the guest settles the booking.
type PaymentMethod string

const (
	PaymentMethodHotel PaymentMethod = "hotel"
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodUPI   PaymentMethod = "upi"
)

// ParsePaymentMethod canonicalizes a payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hotel", "pay_at_property", "cash":
		return PaymentMethodHotel, nil
	case "card":
		return PaymentMethodCard, nil
	case "upi":
		return PaymentMethodUPI, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// RequiresGateway reports whether the method is settled online.
func (m PaymentMethod) RequiresGateway() bool {
	return m == PaymentMethodCard || m == PaymentMethodUPI
}

// BookingSource records which surface created the booking.
type BookingSource string

const (
	BookingSourceCustomerApp    BookingSource = "customer_app"
	BookingSourcePublicCalendar BookingSource = "public_calendar"
	BookingSourceVendorManual   BookingSource = "vendor_manual"
	BookingSourceAdminManual    BookingSource = "admin_manual"
)

// ParseBookingSource validates a booking source string.
func ParseBookingSource(s string) (BookingSource, error) {
	switch src := BookingSource(strings.ToLower(strings.TrimSpace(s))); src {
	case BookingSourceCustomerApp, BookingSourcePublicCalendar, BookingSourceVendorManual, BookingSourceAdminManual:
		return src, nil
	case "":
		return BookingSourceCustomerApp, nil
	}
	return "", fmt.Errorf("unknown booking source %q", s)
}

// Manual reports whether an operator created the booking.
func (s BookingSource) Manual() bool {
	return s == BookingSourceVendorManual || s == BookingSourceAdminManual
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
