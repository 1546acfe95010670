package service

import (
	"go.uber.org/zap"

	"github.com/oopsinfosolutions/feed-sub001/config"
	"github.com/oopsinfosolutions/feed-sub001/internal/repository"
	"github.com/oopsinfosolutions/feed-sub001/pkg/events"
	"github.com/oopsinfosolutions/feed-sub001/pkg/jwt"
	"github.com/oopsinfosolutions/feed-sub001/pkg/storage"
)

// Service groups every service
type Service struct {
	Auth     AuthService
	User     UserService
	Shipment ShipmentService
	Export   ExportService
}

// NewService wires the services. revoker and publisher may be nil.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	revoker TokenRevoker,
	images storage.ImageStore,
	publisher events.Publisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(cfg, repo, jwtMgr, revoker, logger),
		User:     NewUserService(repo, logger),
		Shipment: NewShipmentService(cfg, repo, images, publisher, logger),
		Export:   NewExportService(repo, logger),
	}
}
