package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oopsinfosolutions/feed-sub001/internal/dto"
	"github.com/oopsinfosolutions/feed-sub001/internal/model"
	"github.com/oopsinfosolutions/feed-sub001/internal/service"
	apperrors "github.com/oopsinfosolutions/feed-sub001/pkg/errors"
	"github.com/oopsinfosolutions/feed-sub001/pkg/response"
	"github.com/oopsinfosolutions/feed-sub001/pkg/storage"
)

// sniffLen bytes read to detect the image type
const sniffLen = 512

// ShipmentHandler shipment CRUD over multipart forms
type ShipmentHandler struct {
	shipmentSvc   service.ShipmentService
	maxImageBytes int64
}

// NewShipmentHandler creates a ShipmentHandler. maxImageBytes <= 0 disables
// the per-file limit.
func NewShipmentHandler(shipmentSvc service.ShipmentService, maxImageBytes int64) *ShipmentHandler {
	return &ShipmentHandler{shipmentSvc: shipmentSvc, maxImageBytes: maxImageBytes}
}

// ListShipments
// GET /shipment?c_id=4821&status=pending
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	var req dto.ShipmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	result, err := h.shipmentSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleShipmentError(c, err)
		return
	}

	response.OK(c, result)
}

// GetShipment
// GET /shipment/:id
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	result, err := h.shipmentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleShipmentError(c, err)
		return
	}

	response.OK(c, result)
}

// CreateShipment
// POST /add_shipment (multipart: fields + image1..image3)
func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	in, closeFiles, ok := h.bindShipmentInput(c)
	if !ok {
		return
	}
	defer closeFiles()

	result, err := h.shipmentSvc.Create(c.Request.Context(), in)
	if err != nil {
		h.handleShipmentError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateShipment only supplied fields and image slots are written
// PUT /update-shipment/:id
func (h *ShipmentHandler) UpdateShipment(c *gin.Context) {
	in, closeFiles, ok := h.bindShipmentInput(c)
	if !ok {
		return
	}
	defer closeFiles()

	result, err := h.shipmentSvc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.handleShipmentError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteShipment
// DELETE /delete-shipment/:id
func (h *ShipmentHandler) DeleteShipment(c *gin.Context) {
	if err := h.shipmentSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleShipmentError(c, err)
		return
	}

	response.Message(c, "Shipment deleted successfully")
}

// bindShipmentInput reads the form fields and sniffs each supplied image.
// The returned func closes the opened files; on false a 400 was written.
func (h *ShipmentHandler) bindShipmentInput(c *gin.Context) (*dto.ShipmentInput, func(), bool) {
	in := &dto.ShipmentInput{}
	if err := c.ShouldBind(&in.Form); err != nil {
		response.BadRequest(c, 10001, "malformed form body")
		return nil, nil, false
	}

	var opened []multipart.File
	closeFiles := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for i := 0; i < model.ImageSlots; i++ {
		field := model.ImageColumn(i)
		fh, err := c.FormFile(field)
		if err != nil {
			// absent slot, or not a multipart request
			continue
		}
		if h.maxImageBytes > 0 && fh.Size > h.maxImageBytes {
			closeFiles()
			response.BadRequest(c, 13004, fmt.Sprintf("%s exceeds %d bytes", field, h.maxImageBytes))
			return nil, nil, false
		}

		f, err := fh.Open()
		if err != nil {
			closeFiles()
			response.BadRequest(c, 13004, fmt.Sprintf("%s could not be read", field))
			return nil, nil, false
		}
		opened = append(opened, f)

		head := make([]byte, sniffLen)
		n, err := io.ReadFull(f, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			closeFiles()
			response.BadRequest(c, 13004, fmt.Sprintf("%s could not be read", field))
			return nil, nil, false
		}
		mimeType, ok := storage.DetectImageMIME(head[:n])
		if !ok {
			closeFiles()
			response.BadRequest(c, 13004, fmt.Sprintf("%s must be a jpeg, png, gif or webp image", field))
			return nil, nil, false
		}

		in.Images[i] = &dto.ImageUpload{
			Content:  io.MultiReader(bytes.NewReader(head[:n]), f),
			MIMEType: mimeType,
		}
	}

	return in, closeFiles, true
}

func (h *ShipmentHandler) handleShipmentError(c *gin.Context, err error) {
	var ve *apperrors.ValidationError
	switch {
	case errors.Is(err, service.ErrShipmentNotFound):
		response.MessageError(c, http.StatusNotFound, 13001, "Shipment not found")
	case errors.Is(err, service.ErrShipmentIDExhausted):
		response.Conflict(c, 13002, err.Error())
	case errors.As(err, &ve):
		response.BadRequest(c, 13003, ve.Error())
	default:
		response.InternalError(c)
	}
}
