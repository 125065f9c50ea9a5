package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bookingcore/internal/model"
	"bookingcore/internal/repository"
)

// CommissionCalculator accrues commission for a confirmed booking.
// Implementations must be idempotent per booking.
type CommissionCalculator interface {
	Accrue(ctx context.Context, tx repository.Store, booking *model.Booking) error
}

// CommissionService records connector commission from the property's terms.
type CommissionService struct {
	logger *logrus.Logger
}

var _ CommissionCalculator = (*CommissionService)(nil)

// NewCommissionService creates a new commission service.
func NewCommissionService(logger *logrus.Logger) *CommissionService {
	return &CommissionService{logger: logger}
}

// ComputeCommission applies a flat or percentage commission to a sale amount.
func ComputeCommission(kind model.CommissionType, value, sale decimal.Decimal) decimal.Decimal {
	if kind == model.CommissionTypeFlat {
		return value.Round(2)
	}
	return sale.Mul(value).Div(decimal.NewFromInt(100)).Round(2)
}

// Accrue records a ConnectorEarning when the property has a connector.
func (s *CommissionService) Accrue(ctx context.Context, tx repository.Store, booking *model.Booking) error {
	property, err := tx.Properties().FindByID(ctx, booking.PropertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load property: %w", err)
	}
	if property.ConnectorID == nil {
		return nil
	}

	exists, err := tx.Earnings().ExistsForBooking(ctx, booking.ID)
	if err != nil {
		return fmt.Errorf("check earning: %w", err)
	}
	if exists {
		return nil
	}

	earning := &model.ConnectorEarning{
		ConnectorID:      *property.ConnectorID,
		BookingID:        booking.ID,
		SaleAmount:       booking.TotalAmount,
		CommissionAmount: ComputeCommission(property.CommissionType, property.CommissionValue, booking.TotalAmount),
		PayoutStatus:     model.PayoutStatusPending,
	}
	if err := tx.Earnings().Create(ctx, earning); err != nil {
		return fmt.Errorf("create earning: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"connector_id": earning.ConnectorID,
		"amount":       earning.CommissionAmount.String(),
	}).Info("commission recorded")
	return nil
}
