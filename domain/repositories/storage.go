package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gadgetguard/aegis/domain/entities"
)

// UserRepository defines data access methods for users
type UserRepository interface {
	// Create persists a new user. A duplicate username yields
	// entities.ErrConflict.
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
}

// DeviceRepository defines data access methods for devices. Each operation is
// a single atomic document write; no transaction spans multiple calls.
type DeviceRepository interface {
	// Create persists a new device. A duplicate serial number yields
	// entities.ErrConflict, backed by the store's unique index rather than
	// application-level locking.
	Create(ctx context.Context, device *entities.Device) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*entities.Device, error)
	// GetByUserAndID resolves a device only when it belongs to the given owner.
	GetByUserAndID(ctx context.Context, userID, deviceID primitive.ObjectID) (*entities.Device, error)
	GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]*entities.Device, error)
	// Update overwrites all mutable fields of the device.
	Update(ctx context.Context, device *entities.Device) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// SetProtectionPlan unconditionally replaces any existing plan.
	SetProtectionPlan(ctx context.Context, deviceID primitive.ObjectID, plan *entities.ProtectionPlan) error
	// ExtendProtectionPlan advances the plan end date only when the stored end
	// date still equals expectedEnd. Returns false when the guard did not
	// match, letting the caller re-read and retry.
	ExtendProtectionPlan(ctx context.Context, deviceID primitive.ObjectID, expectedEnd, newEnd time.Time) (bool, error)
	// AppendRecommendation pushes generated advice onto the device's history.
	AppendRecommendation(ctx context.Context, deviceID primitive.ObjectID, recommendation string) error
}
