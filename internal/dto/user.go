package dto

// UserLookupRequest GET /user_id
type UserLookupRequest struct {
	UserID string `form:"user_id" binding:"required"`
}

// UserListRequest GET /users
type UserListRequest struct {
	Type string `form:"type" binding:"omitempty,oneof=customer dealer employee admin"`
}
