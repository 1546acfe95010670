package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oopsinfosolutions/feed-sub001/config"
	"github.com/oopsinfosolutions/feed-sub001/internal/dto"
	"github.com/oopsinfosolutions/feed-sub001/internal/model"
	"github.com/oopsinfosolutions/feed-sub001/internal/repository"
	apperrors "github.com/oopsinfosolutions/feed-sub001/pkg/errors"
	"github.com/oopsinfosolutions/feed-sub001/pkg/events"
	"github.com/oopsinfosolutions/feed-sub001/pkg/idgen"
	"github.com/oopsinfosolutions/feed-sub001/pkg/storage"
)

// ── shipment errors ──

var (
	ErrShipmentNotFound    = apperrors.Wrap(apperrors.ErrNotFound, "Shipment not found")
	ErrShipmentIDExhausted = apperrors.Wrap(apperrors.ErrConflict, "could not allocate a shipment id, try again")
)

// column limits: decimal(12,2) and decimal(14,2)
var (
	maxPricePerUnit = decimal.New(1, 10)
	maxTotalPrice   = decimal.New(1, 12)
)

const imagePrefix = "shipment"

// ShipmentService shipment record lifecycle
type ShipmentService interface {
	Create(ctx context.Context, in *dto.ShipmentInput) (*dto.CreateShipmentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ShipmentResponse, error)
	List(ctx context.Context, req *dto.ShipmentListRequest) ([]dto.ShipmentResponse, error)
	Update(ctx context.Context, id string, in *dto.ShipmentInput) (*dto.UpdateShipmentResponse, error)
	Delete(ctx context.Context, id string) error
}

type shipmentService struct {
	cfg       *config.Config
	repo      *repository.Repository
	ids       *idgen.Generator
	images    storage.ImageStore
	publisher events.Publisher
	logger    *zap.Logger
}

// NewShipmentService creates a ShipmentService
func NewShipmentService(
	cfg *config.Config,
	repo *repository.Repository,
	images storage.ImageStore,
	publisher events.Publisher,
	logger *zap.Logger,
) ShipmentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &shipmentService{
		cfg:       cfg,
		repo:      repo,
		ids:       idgen.New(idgen.Shipment, idgen.WithMaxAttempts(cfg.IDGen.MaxAttempts)),
		images:    images,
		publisher: publisher,
		logger:    logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *shipmentService) Create(ctx context.Context, in *dto.ShipmentInput) (*dto.CreateShipmentResponse, error) {
	shipment := &model.Shipment{Status: model.ShipmentStatusPending}
	if err := applyShipmentForm(shipment, &in.Form, true); err != nil {
		return nil, err
	}
	if err := s.validate(shipment); err != nil {
		return nil, err
	}
	shipment.TotalPrice = totalPrice(shipment.Quantity, shipment.PricePerUnit)

	saved, err := s.saveImages(ctx, in.Images)
	if err != nil {
		return nil, err
	}
	for i, key := range saved {
		if key != nil {
			shipment.SetImage(i, key)
		}
	}

	id, err := s.ids.Allocate(ctx, s.repo.Shipment.ExistsByID, func(ctx context.Context, id string) error {
		shipment.ID = id
		err := s.repo.Shipment.Create(ctx, shipment)
		if apperrors.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %v", idgen.ErrCollision, err)
		}
		return err
	})
	if err != nil {
		s.removeImages(ctx, saved[:]...)
		if errors.Is(err, idgen.ErrExhausted) {
			s.logger.Warn("shipment id space exhausted", zap.Error(err))
			return nil, ErrShipmentIDExhausted
		}
		s.logger.Error("create shipment failed", zap.Error(err))
		return nil, apperrors.Datastore("create shipment", err)
	}

	s.publish(ctx, events.ShipmentCreated, shipment)
	s.logger.Info("shipment created",
		zap.String("id", id),
		zap.String("total_price", shipment.TotalPrice.StringFixed(2)),
	)

	return &dto.CreateShipmentResponse{
		Message:    "Shipment added successfully",
		ID:         id,
		TotalPrice: money(shipment.TotalPrice),
	}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *shipmentService) GetByID(ctx context.Context, id string) (*dto.ShipmentResponse, error) {
	shipment, err := s.repo.Shipment.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrShipmentNotFound
		}
		s.logger.Error("get shipment failed", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Datastore("get shipment", err)
	}

	resp := toShipmentResponse(shipment)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *shipmentService) List(ctx context.Context, req *dto.ShipmentListRequest) ([]dto.ShipmentResponse, error) {
	filter := repository.ShipmentFilter{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Status:     strings.TrimSpace(req.Status),
	}
	if filter.Status != "" && !model.IsValidShipmentStatus(filter.Status) {
		return nil, apperrors.Invalid("status", "is not a known shipment status")
	}

	shipments, err := s.repo.Shipment.List(ctx, filter)
	if err != nil {
		s.logger.Error("list shipments failed", zap.Error(err))
		return nil, apperrors.Datastore("list shipments", err)
	}

	result := make([]dto.ShipmentResponse, 0, len(shipments))
	for i := range shipments {
		result = append(result, toShipmentResponse(&shipments[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

// Update merges the supplied fields over the stored row, validates the merged
// record with the create rules and recomputes the total. Image slots are
// written only when a file is supplied for them.
func (s *shipmentService) Update(ctx context.Context, id string, in *dto.ShipmentInput) (*dto.UpdateShipmentResponse, error) {
	shipment, err := s.repo.Shipment.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrShipmentNotFound
		}
		s.logger.Error("get shipment failed", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Datastore("get shipment", err)
	}
	previous := shipment.Images()

	if err := applyShipmentForm(shipment, &in.Form, false); err != nil {
		return nil, err
	}
	if err := s.validate(shipment); err != nil {
		return nil, err
	}
	shipment.TotalPrice = totalPrice(shipment.Quantity, shipment.PricePerUnit)

	columns := changedColumns(shipment, &in.Form)

	saved, err := s.saveImages(ctx, in.Images)
	if err != nil {
		return nil, err
	}
	for i, key := range saved {
		if key != nil {
			columns[model.ImageColumn(i)] = *key
		}
	}

	if err := s.repo.Shipment.Update(ctx, id, columns); err != nil {
		s.removeImages(ctx, saved[:]...)
		if apperrors.IsNotFound(err) {
			return nil, ErrShipmentNotFound
		}
		s.logger.Error("update shipment failed", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Datastore("update shipment", err)
	}

	// the row now points at the new files
	var replaced []*string
	for i, key := range saved {
		if key != nil {
			replaced = append(replaced, previous[i])
			shipment.SetImage(i, key)
		}
	}
	s.removeImages(ctx, replaced...)

	s.publish(ctx, events.ShipmentUpdated, shipment)

	return &dto.UpdateShipmentResponse{
		Message:    "Shipment updated successfully",
		TotalPrice: money(shipment.TotalPrice),
	}, nil
}

// ────────────────────── Delete ──────────────────────

func (s *shipmentService) Delete(ctx context.Context, id string) error {
	shipment, err := s.repo.Shipment.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return ErrShipmentNotFound
		}
		s.logger.Error("get shipment failed", zap.String("id", id), zap.Error(err))
		return apperrors.Datastore("get shipment", err)
	}

	if err := s.repo.Shipment.Delete(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return ErrShipmentNotFound
		}
		s.logger.Error("delete shipment failed", zap.String("id", id), zap.Error(err))
		return apperrors.Datastore("delete shipment", err)
	}

	images := shipment.Images()
	s.removeImages(ctx, images[:]...)
	s.publish(ctx, events.ShipmentDeleted, shipment)

	return nil
}

// ── validation ──

// applyShipmentForm copies supplied fields onto s. On create, quantity and
// price must be present; on update absent fields keep their stored values.
func applyShipmentForm(s *model.Shipment, f *dto.ShipmentForm, creating bool) error {
	if f.MaterialName != nil {
		s.MaterialName = strings.TrimSpace(*f.MaterialName)
	}
	if f.Detail != nil {
		s.Detail = strings.TrimSpace(*f.Detail)
	}

	switch {
	case f.Quantity != nil && strings.TrimSpace(*f.Quantity) != "":
		q, err := strconv.Atoi(strings.TrimSpace(*f.Quantity))
		if err != nil {
			return apperrors.Invalid("quantity", "must be an integer")
		}
		s.Quantity = q
	case creating || f.Quantity != nil:
		return apperrors.Invalid("quantity", "is required")
	}

	switch {
	case f.PricePerUnit != nil && strings.TrimSpace(*f.PricePerUnit) != "":
		p, err := decimal.NewFromString(strings.TrimSpace(*f.PricePerUnit))
		if err != nil {
			return apperrors.Invalid("price_per_unit", "must be a number")
		}
		if !p.Equal(p.Round(2)) {
			return apperrors.Invalid("price_per_unit", "must have at most 2 decimal places")
		}
		s.PricePerUnit = p
	case creating || f.PricePerUnit != nil:
		return apperrors.Invalid("price_per_unit", "is required")
	}

	applyOptional(&s.Destination, f.Destination)
	applyOptional(&s.PickupLocation, f.PickupLocation)
	applyOptional(&s.DropLocation, f.DropLocation)
	applyOptional(&s.CustomerID, f.CustomerID)
	applyOptional(&s.EmployeeID, f.EmployeeID)
	applyOptional(&s.DealerID, f.DealerID)

	if f.Status != nil && strings.TrimSpace(*f.Status) != "" {
		s.Status = strings.TrimSpace(*f.Status)
	}
	return nil
}

// applyOptional an empty value clears the column
func applyOptional(dst **string, v *string) {
	if v == nil {
		return
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		*dst = nil
		return
	}
	*dst = &trimmed
}

func (s *shipmentService) validate(sh *model.Shipment) error {
	if sh.MaterialName == "" {
		return apperrors.Invalid("material_Name", "is required")
	}
	if sh.Detail == "" {
		return apperrors.Invalid("detail", "is required")
	}
	if sh.Quantity <= 0 {
		return apperrors.Invalid("quantity", "must be greater than zero")
	}
	// quantity is a 32-bit column in mysql and postgres
	if sh.Quantity > math.MaxInt32 {
		return apperrors.Invalid("quantity", "is too large")
	}
	if sh.PricePerUnit.IsNegative() {
		return apperrors.Invalid("price_per_unit", "must not be negative")
	}
	if sh.PricePerUnit.GreaterThanOrEqual(maxPricePerUnit) {
		return apperrors.Invalid("price_per_unit", "is too large")
	}
	if totalPrice(sh.Quantity, sh.PricePerUnit).GreaterThanOrEqual(maxTotalPrice) {
		return apperrors.Invalid("quantity", "makes total_price too large")
	}
	if s.cfg.Feature.RequireDestination && sh.Destination == nil {
		return apperrors.Invalid("destination", "is required")
	}
	if !model.IsValidShipmentStatus(sh.Status) {
		return apperrors.Invalid("status", "is not a known shipment status")
	}
	for field, v := range map[string]*string{"c_id": sh.CustomerID, "e_id": sh.EmployeeID, "d_id": sh.DealerID} {
		if v != nil && len(*v) > 8 {
			return apperrors.Invalid(field, "is too long")
		}
	}
	return nil
}

// changedColumns supplied text columns. quantity, price_per_unit and
// total_price are always written together.
func changedColumns(sh *model.Shipment, f *dto.ShipmentForm) map[string]interface{} {
	columns := map[string]interface{}{
		"quantity":       sh.Quantity,
		"price_per_unit": sh.PricePerUnit,
		"total_price":    sh.TotalPrice,
	}
	if f.MaterialName != nil {
		columns["material_name"] = sh.MaterialName
	}
	if f.Detail != nil {
		columns["detail"] = sh.Detail
	}
	if f.Destination != nil {
		columns["destination"] = sh.Destination
	}
	if f.PickupLocation != nil {
		columns["pickup_location"] = sh.PickupLocation
	}
	if f.DropLocation != nil {
		columns["drop_location"] = sh.DropLocation
	}
	if f.CustomerID != nil {
		columns["c_id"] = sh.CustomerID
	}
	if f.EmployeeID != nil {
		columns["e_id"] = sh.EmployeeID
	}
	if f.DealerID != nil {
		columns["d_id"] = sh.DealerID
	}
	if f.Status != nil {
		columns["status"] = sh.Status
	}
	return columns
}

func totalPrice(quantity int, pricePerUnit decimal.Decimal) decimal.Decimal {
	return pricePerUnit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// ── images ──

// saveImages stores every supplied slot. On failure the files already
// written are removed.
func (s *shipmentService) saveImages(ctx context.Context, uploads [model.ImageSlots]*dto.ImageUpload) ([model.ImageSlots]*string, error) {
	var keys [model.ImageSlots]*string
	for i, up := range uploads {
		if up == nil {
			continue
		}
		if s.images == nil {
			return keys, errors.New("image storage not configured")
		}
		key, err := s.images.Save(ctx, imagePrefix, up.MIMEType, up.Content)
		if err != nil {
			s.removeImages(ctx, keys[:]...)
			s.logger.Error("save image failed", zap.String("slot", model.ImageColumn(i)), zap.Error(err))
			return keys, fmt.Errorf("save %s: %w", model.ImageColumn(i), err)
		}
		keys[i] = &key
	}
	return keys, nil
}

// removeImages best effort; nil entries are skipped
func (s *shipmentService) removeImages(ctx context.Context, keys ...*string) {
	if s.images == nil {
		return
	}
	for _, key := range keys {
		if key == nil || *key == "" {
			continue
		}
		if err := s.images.Delete(ctx, *key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("remove image failed", zap.String("key", *key), zap.Error(err))
		}
	}
}

// ── events ──

func (s *shipmentService) publish(ctx context.Context, eventType string, sh *model.Shipment) {
	event := events.ShipmentEvent{
		Type:       eventType,
		ShipmentID: sh.ID,
		Status:     sh.Status,
		TotalPrice: sh.TotalPrice.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
	if sh.CustomerID != nil {
		event.CustomerID = *sh.CustomerID
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish shipment event failed",
			zap.String("type", eventType),
			zap.String("id", sh.ID),
			zap.Error(err),
		)
	}
}

// ── mapping ──

func toShipmentResponse(sh *model.Shipment) dto.ShipmentResponse {
	return dto.ShipmentResponse{
		ID:             sh.ID,
		MaterialName:   sh.MaterialName,
		Detail:         sh.Detail,
		Quantity:       sh.Quantity,
		PricePerUnit:   money(sh.PricePerUnit),
		TotalPrice:     money(sh.TotalPrice),
		Destination:    sh.Destination,
		PickupLocation: sh.PickupLocation,
		DropLocation:   sh.DropLocation,
		Image1:         sh.Image1,
		Image2:         sh.Image2,
		Image3:         sh.Image3,
		CustomerID:     sh.CustomerID,
		EmployeeID:     sh.EmployeeID,
		DealerID:       sh.DealerID,
		Status:         sh.Status,
		CreatedAt:      sh.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      sh.UpdatedAt.Format(time.RFC3339),
	}
}
