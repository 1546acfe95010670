package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oopsinfosolutions/feed-sub001/pkg/response"
)

// BodyLimit caps the request body at maxBytes. Multipart uploads count the
// whole form including the three image slots. maxBytes <= 0 disables it.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "request body too large")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
