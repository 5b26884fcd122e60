package usecase

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/gadgetguard/aegis/domain/entities"
	"github.com/gadgetguard/aegis/domain/repositories"
)

// extendAttempts bounds the retry loop when concurrent extensions collide.
const extendAttempts = 3

// PlanService owns the protection plan lifecycle: window computation on
// attach, end-date arithmetic on extension, and the status transitions both
// imply.
type PlanService struct {
	devices repositories.DeviceRepository
	logger  *zap.Logger
}

// NewPlanService creates a new plan service
func NewPlanService(devices repositories.DeviceRepository, logger *zap.Logger) *PlanService {
	return &PlanService{
		devices: devices,
		logger:  logger,
	}
}

// Add attaches a freshly computed plan to the device, unconditionally
// replacing any existing plan regardless of its status. Re-issuing coverage
// after expiry is intentionally permitted; the prior plan is discarded.
func (s *PlanService) Add(ctx context.Context, deviceID primitive.ObjectID, input PlanInput) (*entities.ProtectionPlan, error) {
	plan := entities.NewProtectionPlan(input.PlanName, input.DurationMonths, input.Coverage, time.Now())

	if err := s.devices.SetProtectionPlan(ctx, deviceID, plan); err != nil {
		return nil, err
	}

	s.logger.Info("Protection plan added",
		zap.String("device_id", deviceID.Hex()),
		zap.String("plan_name", plan.PlanName),
		zap.Time("end_date", plan.EndDate))

	return plan, nil
}

// Extend pushes the existing plan's end date forward by durationMonths and
// forces its status back to Active. The write is guarded by a compare-and-
// swap on the observed end date, so two racing extensions apply sequentially
// rather than both against the same baseline.
func (s *PlanService) Extend(ctx context.Context, deviceID primitive.ObjectID, durationMonths int) (*entities.ProtectionPlan, error) {
	for attempt := 0; attempt < extendAttempts; attempt++ {
		device, err := s.devices.GetByID(ctx, deviceID)
		if err != nil {
			return nil, err
		}
		if device.ProtectionPlan == nil {
			return nil, entities.ErrPlanNotFound
		}

		plan := device.ProtectionPlan
		observedEnd := plan.EndDate
		plan.Extend(durationMonths)

		swapped, err := s.devices.ExtendProtectionPlan(ctx, deviceID, observedEnd, plan.EndDate)
		if err != nil {
			return nil, err
		}
		if swapped {
			s.logger.Info("Protection plan extended",
				zap.String("device_id", deviceID.Hex()),
				zap.Int("duration_months", durationMonths),
				zap.Time("end_date", plan.EndDate))
			return plan, nil
		}

		s.logger.Warn("Plan extension raced, retrying",
			zap.String("device_id", deviceID.Hex()),
			zap.Int("attempt", attempt+1))
	}

	return nil, fmt.Errorf("failed to extend plan for device %s after %d attempts", deviceID.Hex(), extendAttempts)
}
