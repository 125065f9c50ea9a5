package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bookingcore/internal/model"
	"bookingcore/internal/repository"
)

// PropertySeed is one listing in a seed document.
type PropertySeed struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	PropertyType    string          `json:"property_type"`
	VendorID        *uint           `json:"vendor_id,omitempty"`
	MultiBooking    bool            `json:"multi_booking"`
	ConnectorID     *uint           `json:"connector_id,omitempty"`
	CommissionType  string          `json:"commission_type,omitempty"`
	CommissionValue decimal.Decimal `json:"commission_value" swaggertype:"string"`
	Active          *bool           `json:"active,omitempty"`
}

// SeedResult counts what a seed run did.
type SeedResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped,omitempty"`
}

// PropertySeeder loads the property read model from an external listing export.
type PropertySeeder struct {
	store  repository.Store
	logger *logrus.Logger
}

// NewPropertySeeder creates a new property seeder.
func NewPropertySeeder(store repository.Store, logger *logrus.Logger) *PropertySeeder {
	return &PropertySeeder{store: store, logger: logger}
}

func (s PropertySeed) toModel() (*model.Property, error) {
	if s.ID == 0 {
		return nil, fmt.Errorf("missing id")
	}
	if strings.TrimSpace(s.Name) == "" {
		return nil, fmt.Errorf("property %d: missing name", s.ID)
	}

	kind := model.CommissionType(strings.ToLower(strings.TrimSpace(s.CommissionType)))
	switch kind {
	case "", model.CommissionTypeFlat, model.CommissionTypePercentage:
	default:
		return nil, fmt.Errorf("property %d: unknown commission type %q", s.ID, s.CommissionType)
	}
	if s.CommissionValue.IsNegative() {
		return nil, fmt.Errorf("property %d: negative commission", s.ID)
	}

	propertyType := strings.TrimSpace(s.PropertyType)
	if propertyType == "" {
		propertyType = "villa"
	}
	active := true
	if s.Active != nil {
		active = *s.Active
	}

	return &model.Property{
		ID:              s.ID,
		Name:            strings.TrimSpace(s.Name),
		PropertyType:    propertyType,
		VendorID:        s.VendorID,
		MultiBooking:    s.MultiBooking,
		ConnectorID:     s.ConnectorID,
		CommissionType:  kind,
		CommissionValue: s.CommissionValue,
		Active:          active,
	}, nil
}

// Seed upserts every valid entry in one transaction. Invalid entries are skipped.
func (p *PropertySeeder) Seed(ctx context.Context, seeds []PropertySeed) (*SeedResult, error) {
	result := &SeedResult{}
	err := p.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		for _, seed := range seeds {
			property, err := seed.toModel()
			if err != nil {
				result.Skipped = append(result.Skipped, err.Error())
				continue
			}
			created, err := tx.Properties().Upsert(ctx, property)
			if err != nil {
				return fmt.Errorf("upsert property %d: %w", property.ID, err)
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"created": result.Created,
		"updated": result.Updated,
		"skipped": len(result.Skipped),
	}).Info("properties seeded")
	return result, nil
}
