package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CommissionType decides how connector commission is computed.
type CommissionType string

const (
	CommissionTypeFlat       CommissionType = "flat"
	CommissionTypePercentage CommissionType = "percentage"
)

// Property is the read model of a listing as far as reservations need it.
// Listing CRUD lives outside this service.
type Property struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Name            string          `json:"name" gorm:"size:255;not null"`
	PropertyType    string          `json:"property_type" gorm:"size:64;not null;default:'villa'"`
	VendorID        *uint           `json:"vendor_id,omitempty" gorm:"index"`
	MultiBooking    bool            `json:"multi_booking" gorm:"default:false"`
	ConnectorID     *uint           `json:"connector_id,omitempty" gorm:"index"`
	CommissionType  CommissionType  `json:"commission_type,omitempty" gorm:"type:varchar(20)"`
	CommissionValue decimal.Decimal `json:"commission_value" gorm:"type:decimal(12,2);not null;default:0"`
	Active          bool            `json:"active" gorm:"default:true"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// AllowsMultipleBookings reports whether overlapping bookings are permitted,
// as for day-use water parks.
func (p *Property) AllowsMultipleBookings() bool {
	if p.MultiBooking {
		return true
	}
	return strings.Contains(strings.ToLower(p.PropertyType), "water")
}
