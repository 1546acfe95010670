package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/oopsinfosolutions/feed-sub001/internal/dto"
	"github.com/oopsinfosolutions/feed-sub001/internal/service"
	apperrors "github.com/oopsinfosolutions/feed-sub001/pkg/errors"
	"github.com/oopsinfosolutions/feed-sub001/pkg/response"
)

// UserHandler account lookups
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler creates a UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetByUserID
// GET /user_id?user_id=4821
func (h *UserHandler) GetByUserID(c *gin.Context) {
	var req dto.UserLookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "user_id is required")
		return
	}

	result, err := h.userSvc.GetByUserID(c.Request.Context(), req.UserID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

// GetCurrentUser the caller's own row
// GET /me
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.userSvc.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

// ListUsers directory, optionally by type
// GET /users?type=dealer
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "type must be one of customer, dealer, employee, admin")
		return
	}

	result, err := h.userSvc.ListByType(c.Request.Context(), req.Type)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	var ve *apperrors.ValidationError
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "User not found")
	case errors.As(err, &ve):
		response.BadRequest(c, 10001, ve.Error())
	default:
		response.InternalError(c)
	}
}
