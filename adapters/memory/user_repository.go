package memory

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gadgetguard/aegis/domain/entities"
	"github.com/gadgetguard/aegis/domain/repositories"
)

// UserRepository is an in-memory implementation of the user store.
type UserRepository struct {
	mu        sync.RWMutex
	users     map[primitive.ObjectID]*entities.User
	usernames map[string]primitive.ObjectID
}

// NewUserRepository creates an empty in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:     make(map[primitive.ObjectID]*entities.User),
		usernames: make(map[string]primitive.ObjectID),
	}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// Create implements repositories.UserRepository
func (m *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usernames[user.Username]; exists {
		return entities.ErrConflict
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	userCopy := *user
	m.users[user.ID] = &userCopy
	m.usernames[user.Username] = user.ID
	return nil
}

// GetByID implements repositories.UserRepository
func (m *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entities.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, entities.ErrNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

// GetByUsername implements repositories.UserRepository
func (m *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.usernames[username]
	if !exists {
		return nil, entities.ErrNotFound
	}
	userCopy := *m.users[id]
	return &userCopy, nil
}
