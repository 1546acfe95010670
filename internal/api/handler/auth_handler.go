package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oopsinfosolutions/feed-sub001/internal/dto"
	"github.com/oopsinfosolutions/feed-sub001/internal/service"
	apperrors "github.com/oopsinfosolutions/feed-sub001/pkg/errors"
	"github.com/oopsinfosolutions/feed-sub001/pkg/response"
)

// AuthHandler registration, login and logout
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Signup registers an account
// POST /signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "name, email, password, phone and type are required; email must be valid")
		return
	}

	result, err := h.authSvc.Signup(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, result)
}

// Login
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "email and password are required")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout revokes the presented token
// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}
	jti, exp := GetTokenInfo(c)

	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}

	response.Message(c, "Logged out")
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	var ve *apperrors.ValidationError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(c, 11002, err.Error())
	case errors.Is(err, service.ErrUserIDExhausted):
		response.Conflict(c, 11003, err.Error())
	case errors.As(err, &ve):
		response.BadRequest(c, 10001, ve.Error())
	default:
		response.InternalError(c)
	}
}
