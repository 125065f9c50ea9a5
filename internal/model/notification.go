package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationKind names the template a delivery worker renders.
type NotificationKind string

const (
	NotificationBookingConfirmed NotificationKind = "booking_confirmed"
)

// Notification is an outbox row. Delivery (SMS, email, push) happens elsewhere.
type Notification struct {
	ID          uuid.UUID        `json:"id" gorm:"type:char(36);primaryKey"`
	BookingID   uint             `json:"booking_id" gorm:"not null;uniqueIndex:idx_notifications_booking_kind,priority:1"`
	Kind        NotificationKind `json:"kind" gorm:"type:varchar(40);not null;uniqueIndex:idx_notifications_booking_kind,priority:2"`
	Recipient   string           `json:"recipient" gorm:"size:255;not null"`
	Email       *string          `json:"email,omitempty" gorm:"size:255"`
	Message     string           `json:"message" gorm:"type:text"`
	DeliveredAt *time.Time       `json:"delivered_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
