package repository

import "gorm.io/gorm"

// Repository groups the data access interfaces
type Repository struct {
	User     UserRepository
	Shipment ShipmentRepository
}

// NewRepository wires every repository onto one handle
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:     NewUserRepo(db),
		Shipment: NewShipmentRepo(db),
	}
}
