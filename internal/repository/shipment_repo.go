package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oopsinfosolutions/feed-sub001/internal/model"
)

// ShipmentFilter optional list filters; zero values are ignored
type ShipmentFilter struct {
	CustomerID string
	Status     string
}

// ShipmentRepository shipment_detail data access
type ShipmentRepository interface {
	Create(ctx context.Context, shipment *model.Shipment) error
	ExistsByID(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Shipment, error)
	List(ctx context.Context, filter ShipmentFilter) ([]model.Shipment, error)
	// Update writes only the given columns. Zero rows → gorm.ErrRecordNotFound.
	Update(ctx context.Context, id string, columns map[string]interface{}) error
	// Delete hard-deletes. Zero rows → gorm.ErrRecordNotFound.
	Delete(ctx context.Context, id string) error
}

type shipmentRepo struct {
	db *gorm.DB
}

// NewShipmentRepo creates a ShipmentRepository
func NewShipmentRepo(db *gorm.DB) ShipmentRepository {
	return &shipmentRepo{db: db}
}

func (r *shipmentRepo) Create(ctx context.Context, shipment *model.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *shipmentRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Shipment{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *shipmentRepo) GetByID(ctx context.Context, id string) (*model.Shipment, error) {
	var shipment model.Shipment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// List in natural storage order
func (r *shipmentRepo) List(ctx context.Context, filter ShipmentFilter) ([]model.Shipment, error) {
	shipments := make([]model.Shipment, 0)
	db := r.db.WithContext(ctx)
	if filter.CustomerID != "" {
		db = db.Where("c_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	err := db.Find(&shipments).Error
	return shipments, err
}

func (r *shipmentRepo) Update(ctx context.Context, id string, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Shipment{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *shipmentRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Shipment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
