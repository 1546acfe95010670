package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oopsinfosolutions/feed-sub001/pkg/response"
)

// MustGetUserID reads the account code JWTAuth stored on the context.
// On false a 401 has been written and the caller should return.
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// GetTokenInfo jti and expiry of the presented token, zero values when absent
func GetTokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	expAt, _ := exp.(time.Time)
	return jti, expAt
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "authentication required")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "authentication required")
		return "", false
	}
	return s, true
}
