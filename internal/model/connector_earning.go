package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutStatus tracks settlement of a connector earning.
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
)

// ConnectorEarning is the commission accrued to a property's connector for a booking.
// BookingID is unique: a booking accrues commission at most once.
type ConnectorEarning struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	ConnectorID      uint            `json:"connector_id" gorm:"not null;index"`
	BookingID        uint            `json:"booking_id" gorm:"not null;uniqueIndex"`
	SaleAmount       decimal.Decimal `json:"sale_amount" gorm:"type:decimal(12,2);not null"`
	CommissionAmount decimal.Decimal `json:"commission_amount" gorm:"type:decimal(12,2);not null"`
	PayoutStatus     PayoutStatus    `json:"payout_status" gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt        time.Time       `json:"created_at"`
}
