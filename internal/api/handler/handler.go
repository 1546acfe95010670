package handler

import (
	"github.com/oopsinfosolutions/feed-sub001/config"
	"github.com/oopsinfosolutions/feed-sub001/internal/service"
	"github.com/oopsinfosolutions/feed-sub001/pkg/storage"
)

// Handler groups every handler
type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Shipment *ShipmentHandler
	Image    *ImageHandler
	Export   *ExportHandler
}

// NewHandler wires handlers onto the services
func NewHandler(cfg *config.Config, svc *service.Service, images storage.ImageStore) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		User:     NewUserHandler(svc.User),
		Shipment: NewShipmentHandler(svc.Shipment, cfg.Storage.MaxImageBytes),
		Image:    NewImageHandler(images),
		Export:   NewExportHandler(svc.Export),
	}
}
