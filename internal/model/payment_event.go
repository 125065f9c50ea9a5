package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentEventKind identifies where a payment event came from.
type PaymentEventKind string

const (
	PaymentEventInitiation PaymentEventKind = "initiation"
	PaymentEventCallback   PaymentEventKind = "callback"
	PaymentEventRedirect   PaymentEventKind = "redirect"
	PaymentEventStatusPoll PaymentEventKind = "status_poll"
)

// PaymentEventOutcome is what the service did with the event.
type PaymentEventOutcome string

const (
	PaymentEventApplied   PaymentEventOutcome = "applied"
	PaymentEventReplayed  PaymentEventOutcome = "replayed"
	PaymentEventRejected  PaymentEventOutcome = "rejected"
	PaymentEventFailed    PaymentEventOutcome = "failed"
	PaymentEventInitiated PaymentEventOutcome = "initiated"
	// PaymentEventObserved is an unsigned browser redirect; it never changes state.
	PaymentEventObserved PaymentEventOutcome = "observed"
)

// PaymentEvent is an append-only audit record of gateway traffic.
// All initiations and callbacks are logged regardless of outcome.
type PaymentEvent struct {
	ID                    uuid.UUID           `json:"id" gorm:"type:char(36);primaryKey"`
	BookingID             *uint               `json:"booking_id,omitempty" gorm:"index"`
	MerchantTransactionID string              `json:"merchant_transaction_id" gorm:"size:64;index"`
	Kind                  PaymentEventKind    `json:"kind" gorm:"type:varchar(20);not null;index"`
	GatewayCode           string              `json:"gateway_code" gorm:"size:64"`
	Outcome               PaymentEventOutcome `json:"outcome" gorm:"type:varchar(20);not null;index"`
	Detail                string              `json:"detail,omitempty" gorm:"type:text"`
	SourceIP              string              `json:"source_ip,omitempty" gorm:"size:64"`
	Payload               datatypes.JSON      `json:"payload,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (e *PaymentEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
