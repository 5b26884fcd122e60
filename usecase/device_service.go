package usecase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/gadgetguard/aegis/domain/entities"
	"github.com/gadgetguard/aegis/domain/repositories"
)

// PlanInput carries the caller-supplied fields for a new protection plan.
// Start and end dates are computed, never accepted from the caller.
type PlanInput struct {
	PlanName       string
	DurationMonths int
	Coverage       []string
}

// DeviceService orchestrates device CRUD: validation, uniqueness, date order,
// then a single store write.
type DeviceService struct {
	devices repositories.DeviceRepository
	logger  *zap.Logger
}

// NewDeviceService creates a new device service
func NewDeviceService(devices repositories.DeviceRepository, logger *zap.Logger) *DeviceService {
	return &DeviceService{
		devices: devices,
		logger:  logger,
	}
}

// Add persists a new device, optionally with a freshly computed protection
// plan. The serial pre-check is a best-effort optimization; the store's
// unique index is the real guarantee against concurrent duplicates.
func (s *DeviceService) Add(ctx context.Context, device *entities.Device, plan *PlanInput) error {
	existing, err := s.devices.GetBySerialNumber(ctx, device.SerialNumber)
	if err != nil && !errors.Is(err, entities.ErrNotFound) {
		return err
	}
	if existing != nil {
		return entities.ErrConflict
	}

	if err := entities.ValidateDateOrder(device.PurchaseDate, device.WarrantyExpiryDate); err != nil {
		return err
	}

	if plan != nil {
		device.ProtectionPlan = entities.NewProtectionPlan(
			plan.PlanName, plan.DurationMonths, plan.Coverage, time.Now())
	}

	if err := s.devices.Create(ctx, device); err != nil {
		return err
	}

	s.logger.Info("Device added",
		zap.String("device_id", device.ID.Hex()),
		zap.String("serial_number", device.SerialNumber),
		zap.Bool("with_plan", device.ProtectionPlan != nil))

	return nil
}

// List returns all devices belonging to the owner.
func (s *DeviceService) List(ctx context.Context, userID primitive.ObjectID) ([]*entities.Device, error) {
	return s.devices.GetByUserID(ctx, userID)
}

// Update overwrites all mutable fields of an existing device.
func (s *DeviceService) Update(ctx context.Context, device *entities.Device) error {
	if err := entities.ValidateDateOrder(device.PurchaseDate, device.WarrantyExpiryDate); err != nil {
		return err
	}

	if err := s.devices.Update(ctx, device); err != nil {
		return err
	}

	s.logger.Info("Device updated", zap.String("device_id", device.ID.Hex()))
	return nil
}

// Delete removes a device and, with it, its embedded plan and claim history.
func (s *DeviceService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.devices.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Device deleted", zap.String("device_id", id.Hex()))
	return nil
}
