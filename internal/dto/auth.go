package dto

// ── account DTOs ──

// SignupRequest registration body. Accepted as JSON or form fields.
type SignupRequest struct {
	Name     string `json:"name"     form:"name"     binding:"required,max=100"`
	Email    string `json:"email"    form:"email"    binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,max=72"`
	Phone    string `json:"phone"    form:"phone"    binding:"required,max=32"`
	Type     string `json:"type"     form:"type"     binding:"required,oneof=customer dealer employee admin"`
}

// LoginRequest login body
type LoginRequest struct {
	Email    string `json:"email"    form:"email"    binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}
