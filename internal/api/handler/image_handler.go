package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oopsinfosolutions/feed-sub001/pkg/response"
	"github.com/oopsinfosolutions/feed-sub001/pkg/storage"
)

// ImageHandler serves stored shipment images
type ImageHandler struct {
	images storage.ImageStore
}

// NewImageHandler creates an ImageHandler
func NewImageHandler(images storage.ImageStore) *ImageHandler {
	return &ImageHandler{images: images}
}

// GetImage streams one image
// GET /images/:key
func (h *ImageHandler) GetImage(c *gin.Context) {
	rc, mimeType, err := h.images.Open(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			response.NotFound(c, 14001, "image not found")
			return
		}
		response.InternalError(c)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, mimeType, rc, map[string]string{
		"Cache-Control":          "private, max-age=86400",
		"X-Content-Type-Options": "nosniff",
	})
}
