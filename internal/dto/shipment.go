package dto

import "io"

// ── shipment DTOs ──

// ShipmentForm text fields of the add/update forms. Numbers arrive as text
// and are parsed by the service; nil means the field was not sent.
// total_price is never read from the client.
type ShipmentForm struct {
	MaterialName   *string `form:"material_Name"`
	Detail         *string `form:"detail"`
	Quantity       *string `form:"quantity"`
	PricePerUnit   *string `form:"price_per_unit"`
	Destination    *string `form:"destination"`
	PickupLocation *string `form:"pickup_location"`
	DropLocation   *string `form:"drop_location"`
	CustomerID     *string `form:"c_id"`
	EmployeeID     *string `form:"e_id"`
	DealerID       *string `form:"d_id"`
	Status         *string `form:"status"`
}

// ImageUpload one sniffed image file
type ImageUpload struct {
	Content  io.Reader
	MIMEType string
}

// ShipmentInput form fields plus the image slots image1..image3
type ShipmentInput struct {
	Form   ShipmentForm
	Images [3]*ImageUpload
}

// ShipmentListRequest GET /shipment filters
type ShipmentListRequest struct {
	CustomerID string `form:"c_id"`
	Status     string `form:"status"`
}
