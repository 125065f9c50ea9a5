package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookingcore/internal/model"
)

// PropertyRepository gives read access to listings and the per-property lock.
type PropertyRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Property, error)
	// FindByIDForUpdate locks the property row. Booking inserts for a property
	// serialize on this lock.
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Property, error)
	Upsert(ctx context.Context, property *model.Property) (created bool, err error)
}

type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository creates a new property repository.
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) FindByID(ctx context.Context, id uint) (*model.Property, error) {
	var property model.Property
	if err := r.db.WithContext(ctx).First(&property, id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *propertyRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Property, error) {
	var property model.Property
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&property, id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// Upsert creates the property or updates it when the ID already exists.
func (r *propertyRepository) Upsert(ctx context.Context, property *model.Property) (bool, error) {
	var existing model.Property
	err := r.db.WithContext(ctx).First(&existing, property.ID).Error
	if err == gorm.ErrRecordNotFound {
		return true, r.db.WithContext(ctx).Create(property).Error
	}
	if err != nil {
		return false, err
	}
	property.CreatedAt = existing.CreatedAt
	return false, r.db.WithContext(ctx).Save(property).Error
}
