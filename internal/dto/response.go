package dto

import "encoding/json"

// ── account responses ──

// UserResponse account row without the password hash
type UserResponse struct {
	ID        uint   `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

// SignupResponse 201 body
type SignupResponse struct {
	ID      uint   `json:"id"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// LoginResponse the user row plus an access token
type LoginResponse struct {
	UserResponse
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// ── shipment responses ──

// ShipmentResponse one shipment_detail row. Money is rendered as a JSON
// number with two decimals.
type ShipmentResponse struct {
	ID             string      `json:"id"`
	MaterialName   string      `json:"material_Name"`
	Detail         string      `json:"detail"`
	Quantity       int         `json:"quantity"`
	PricePerUnit   json.Number `json:"price_per_unit"`
	TotalPrice     json.Number `json:"total_price"`
	Destination    *string     `json:"destination"`
	PickupLocation *string     `json:"pickup_location"`
	DropLocation   *string     `json:"drop_location"`
	Image1         *string     `json:"image1"`
	Image2         *string     `json:"image2"`
	Image3         *string     `json:"image3"`
	CustomerID     *string     `json:"c_id"`
	EmployeeID     *string     `json:"e_id"`
	DealerID       *string     `json:"d_id"`
	Status         string      `json:"status"`
	CreatedAt      string      `json:"created_at"`
	UpdatedAt      string      `json:"updated_at"`
}

// CreateShipmentResponse POST /add_shipment
type CreateShipmentResponse struct {
	Message    string      `json:"message"`
	ID         string      `json:"id"`
	TotalPrice json.Number `json:"total_price"`
}

// UpdateShipmentResponse PUT /update-shipment/:id
type UpdateShipmentResponse struct {
	Message    string      `json:"message"`
	TotalPrice json.Number `json:"total_price"`
}
