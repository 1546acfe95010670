package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody error payload. The mobile client reads "error"; Code is a stable
// machine-readable number.
type ErrorBody struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// MessageBody plain acknowledgement or shipment-level failure payload.
type MessageBody struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// ── success ──

// OK 200 with the payload as the body
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201 with the payload as the body
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message 200 {message}
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageBody{Message: message})
}

// ── errors ──

// Error generic {code, error} response
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, ErrorBody{Code: code, Error: message})
}

// MessageError {code, message} response, used where the contract names the
// field "message" (shipment not-found).
func MessageError(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, MessageBody{Code: code, Message: message})
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError 500; never carries the cause
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "internal server error")
}
