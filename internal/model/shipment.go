package model

import "github.com/shopspring/decimal"

// Shipment lifecycle tags
const (
	ShipmentStatusPending   = "pending"
	ShipmentStatusConfirmed = "Confirmed"
	ShipmentStatusApproved  = "approved"
	ShipmentStatusRejected  = "rejected"
	ShipmentStatusInTransit = "in_transit"
	ShipmentStatusDelivered = "delivered"
)

// ImageSlots number of image columns on a shipment
const ImageSlots = 3

// Shipment material shipment, table shipment_detail.
// ID is allocated by the server ("SHP" + 6 digits) and never changes.
type Shipment struct {
	ID             string          `gorm:"type:varchar(16);primaryKey"  json:"id"`
	MaterialName   string          `gorm:"type:varchar(255);not null"   json:"material_Name"`
	Detail         string          `gorm:"type:text;not null"           json:"detail"`
	Quantity       int             `gorm:"not null"                     json:"quantity"`
	PricePerUnit   decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"price_per_unit"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(14,2);not null"  json:"total_price"`
	Destination    *string         `gorm:"type:varchar(255)"            json:"destination"`
	PickupLocation *string         `gorm:"type:varchar(255)"            json:"pickup_location"`
	DropLocation   *string         `gorm:"type:varchar(255)"            json:"drop_location"`
	Image1         *string         `gorm:"column:image1;type:varchar(255)" json:"image1"`
	Image2         *string         `gorm:"column:image2;type:varchar(255)" json:"image2"`
	Image3         *string         `gorm:"column:image3;type:varchar(255)" json:"image3"`
	CustomerID     *string         `gorm:"column:c_id;type:varchar(8);index" json:"c_id"`
	EmployeeID     *string         `gorm:"column:e_id;type:varchar(8)"       json:"e_id"`
	DealerID       *string         `gorm:"column:d_id;type:varchar(8)"       json:"d_id"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	BaseModel
}

// TableName table name
func (Shipment) TableName() string { return "shipment_detail" }

// Images returns the image keys by slot (index 0 is image1)
func (s *Shipment) Images() [ImageSlots]*string {
	return [ImageSlots]*string{s.Image1, s.Image2, s.Image3}
}

// SetImage sets slot i (0-based)
func (s *Shipment) SetImage(i int, key *string) {
	switch i {
	case 0:
		s.Image1 = key
	case 1:
		s.Image2 = key
	case 2:
		s.Image3 = key
	}
}

// ImageColumn column name for slot i (0-based)
func ImageColumn(i int) string {
	return [ImageSlots]string{"image1", "image2", "image3"}[i]
}

// IsValidShipmentStatus reports whether status is a known lifecycle tag
func IsValidShipmentStatus(status string) bool {
	switch status {
	case ShipmentStatusPending, ShipmentStatusConfirmed, ShipmentStatusApproved,
		ShipmentStatusRejected, ShipmentStatusInTransit, ShipmentStatusDelivered:
		return true
	}
	return false
}
