package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gadgetguard/aegis/domain/entities"
	"github.com/gadgetguard/aegis/domain/repositories"
)

type DeviceRepository struct {
	collection *mongo.Collection
}

// NewDeviceRepository creates a new MongoDB device repository
func NewDeviceRepository(db *mongo.Database) *DeviceRepository {
	return &DeviceRepository{
		collection: db.Collection("devices"),
	}
}

var _ repositories.DeviceRepository = (*DeviceRepository)(nil)

// EnsureIndexes creates the unique serial number index. Serial uniqueness is
// enforced here, not by application-level locking; a race between two adds
// with the same serial surfaces as a duplicate key error on the loser.
func (r *DeviceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "serialNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create serial number index: %w", err)
	}
	return nil
}

// Create implements repositories.DeviceRepository
func (r *DeviceRepository) Create(ctx context.Context, device *entities.Device) error {
	if device == nil {
		return errors.New("device cannot be nil")
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

	_, err := r.collection.InsertOne(ctx, device)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entities.ErrConflict
		}
		return fmt.Errorf("failed to create device: %w", err)
	}

	return nil
}

// GetByID implements repositories.DeviceRepository
func (r *DeviceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entities.Device, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByUserAndID implements repositories.DeviceRepository
func (r *DeviceRepository) GetByUserAndID(ctx context.Context, userID, deviceID primitive.ObjectID) (*entities.Device, error) {
	return r.findOne(ctx, bson.M{"_id": deviceID, "userId": userID})
}

// GetBySerialNumber implements repositories.DeviceRepository
func (r *DeviceRepository) GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error) {
	return r.findOne(ctx, bson.M{"serialNumber": serialNumber})
}

func (r *DeviceRepository) findOne(ctx context.Context, filter bson.M) (*entities.Device, error) {
	var device entities.Device
	err := r.collection.FindOne(ctx, filter).Decode(&device)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &device, nil
}

// GetByUserID implements repositories.DeviceRepository
func (r *DeviceRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]*entities.Device, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list devices for user %s: %w", userID.Hex(), err)
	}
	defer cursor.Close(ctx)

	devices := []*entities.Device{}
	if err := cursor.All(ctx, &devices); err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}

	return devices, nil
}

// Update implements repositories.DeviceRepository. All mutable fields are
// overwritten in a single document write.
func (r *DeviceRepository) Update(ctx context.Context, device *entities.Device) error {
	if device == nil {
		return errors.New("device cannot be nil")
	}
	if device.ID.IsZero() {
		return errors.New("device ID cannot be empty")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": device.ID}, device)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entities.ErrConflict
		}
		return fmt.Errorf("failed to update device: %w", err)
	}
	if result.MatchedCount == 0 {
		return entities.ErrNotFound
	}

	return nil
}

// Delete implements repositories.DeviceRepository. The embedded plan and
// claim history go with the document; there is no soft delete.
func (r *DeviceRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if result.DeletedCount == 0 {
		return entities.ErrNotFound
	}
	return nil
}

// SetProtectionPlan implements repositories.DeviceRepository
func (r *DeviceRepository) SetProtectionPlan(ctx context.Context, deviceID primitive.ObjectID, plan *entities.ProtectionPlan) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": deviceID},
		bson.M{"$set": bson.M{"protectionPlan": plan}},
	)
	if err != nil {
		return fmt.Errorf("failed to set protection plan: %w", err)
	}
	if result.MatchedCount == 0 {
		return entities.ErrNotFound
	}
	return nil
}

// ExtendProtectionPlan implements repositories.DeviceRepository. The filter
// doubles as a compare-and-swap guard on the previously observed end date, so
// two concurrent extensions cannot both apply to the same baseline.
func (r *DeviceRepository) ExtendProtectionPlan(ctx context.Context, deviceID primitive.ObjectID, expectedEnd, newEnd time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": deviceID, "protectionPlan.endDate": expectedEnd},
		bson.M{"$set": bson.M{
			"protectionPlan.endDate": newEnd,
			"protectionPlan.status":  entities.PlanStatusActive,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to extend protection plan: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// AppendRecommendation implements repositories.DeviceRepository
func (r *DeviceRepository) AppendRecommendation(ctx context.Context, deviceID primitive.ObjectID, recommendation string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": deviceID},
		bson.M{"$push": bson.M{"aiRecommendations": recommendation}},
	)
	if err != nil {
		return fmt.Errorf("failed to append recommendation: %w", err)
	}
	if result.MatchedCount == 0 {
		return entities.ErrNotFound
	}
	return nil
}
