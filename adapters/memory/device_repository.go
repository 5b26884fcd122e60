package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gadgetguard/aegis/domain/entities"
	"github.com/gadgetguard/aegis/domain/repositories"
)

// DeviceRepository is an in-memory implementation of the device store, used
// by tests and local development. Semantics mirror the MongoDB adapter:
// unique serial numbers, atomic per-device writes, CAS-guarded extension.
type DeviceRepository struct {
	mu      sync.RWMutex
	devices map[primitive.ObjectID]*entities.Device
	serials map[string]primitive.ObjectID
}

// NewDeviceRepository creates an empty in-memory device repository
func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{
		devices: make(map[primitive.ObjectID]*entities.Device),
		serials: make(map[string]primitive.ObjectID),
	}
}

var _ repositories.DeviceRepository = (*DeviceRepository)(nil)

func copyDevice(d *entities.Device) *entities.Device {
	c := *d
	if d.ProtectionPlan != nil {
		plan := *d.ProtectionPlan
		plan.Coverage = append([]string(nil), d.ProtectionPlan.Coverage...)
		c.ProtectionPlan = &plan
	}
	c.AIRecommendations = append([]string{}, d.AIRecommendations...)
	c.ClaimHistory = append([]entities.Claim{}, d.ClaimHistory...)
	return &c
}

// Create implements repositories.DeviceRepository
func (m *DeviceRepository) Create(ctx context.Context, device *entities.Device) error {
	if device == nil {
		return errors.New("device cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.serials[device.SerialNumber]; exists {
		return entities.ErrConflict
	}

	if device.ID.IsZero() {
		device.ID = primitive.NewObjectID()
	}
	if device.AIRecommendations == nil {
		device.AIRecommendations = []string{}
	}
	if device.ClaimHistory == nil {
		device.ClaimHistory = []entities.Claim{}
	}

	m.devices[device.ID] = copyDevice(device)
	m.serials[device.SerialNumber] = device.ID
	return nil
}

// GetByID implements repositories.DeviceRepository
func (m *DeviceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	device, exists := m.devices[id]
	if !exists {
		return nil, entities.ErrNotFound
	}
	return copyDevice(device), nil
}

// GetByUserAndID implements repositories.DeviceRepository
func (m *DeviceRepository) GetByUserAndID(ctx context.Context, userID, deviceID primitive.ObjectID) (*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	device, exists := m.devices[deviceID]
	if !exists || device.UserID != userID {
		return nil, entities.ErrNotFound
	}
	return copyDevice(device), nil
}

// GetBySerialNumber implements repositories.DeviceRepository
func (m *DeviceRepository) GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.serials[serialNumber]
	if !exists {
		return nil, entities.ErrNotFound
	}
	return copyDevice(m.devices[id]), nil
}

// GetByUserID implements repositories.DeviceRepository
func (m *DeviceRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	devices := []*entities.Device{}
	for _, device := range m.devices {
		if device.UserID == userID {
			devices = append(devices, copyDevice(device))
		}
	}
	return devices, nil
}

// Update implements repositories.DeviceRepository
func (m *DeviceRepository) Update(ctx context.Context, device *entities.Device) error {
	if device == nil {
		return errors.New("device cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.devices[device.ID]
	if !exists {
		return entities.ErrNotFound
	}

	if id, taken := m.serials[device.SerialNumber]; taken && id != device.ID {
		return entities.ErrConflict
	}

	delete(m.serials, existing.SerialNumber)
	m.devices[device.ID] = copyDevice(device)
	m.serials[device.SerialNumber] = device.ID
	return nil
}

// Delete implements repositories.DeviceRepository
func (m *DeviceRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, exists := m.devices[id]
	if !exists {
		return entities.ErrNotFound
	}

	delete(m.serials, device.SerialNumber)
	delete(m.devices, id)
	return nil
}

// SetProtectionPlan implements repositories.DeviceRepository
func (m *DeviceRepository) SetProtectionPlan(ctx context.Context, deviceID primitive.ObjectID, plan *entities.ProtectionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, exists := m.devices[deviceID]
	if !exists {
		return entities.ErrNotFound
	}

	planCopy := *plan
	device.ProtectionPlan = &planCopy
	return nil
}

// ExtendProtectionPlan implements repositories.DeviceRepository
func (m *DeviceRepository) ExtendProtectionPlan(ctx context.Context, deviceID primitive.ObjectID, expectedEnd, newEnd time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, exists := m.devices[deviceID]
	if !exists || device.ProtectionPlan == nil {
		return false, nil
	}
	if !device.ProtectionPlan.EndDate.Equal(expectedEnd) {
		return false, nil
	}

	device.ProtectionPlan.EndDate = newEnd
	device.ProtectionPlan.Status = entities.PlanStatusActive
	return true, nil
}

// AppendRecommendation implements repositories.DeviceRepository
func (m *DeviceRepository) AppendRecommendation(ctx context.Context, deviceID primitive.ObjectID, recommendation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, exists := m.devices[deviceID]
	if !exists {
		return entities.ErrNotFound
	}

	device.AIRecommendations = append(device.AIRecommendations, recommendation)
	return nil
}
