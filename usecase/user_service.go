package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gadgetguard/aegis/domain/entities"
	"github.com/gadgetguard/aegis/domain/repositories"
	"github.com/gadgetguard/aegis/internal/auth"
)

// bcryptCost matches the work factor used for all stored password hashes.
const bcryptCost = 10

// UserService handles account registration and login.
type UserService struct {
	users  repositories.UserRepository
	tokens *auth.Manager
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository, tokens *auth.Manager, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a new account with a bcrypt-hashed password. A taken
// username yields entities.ErrConflict.
func (s *UserService) Register(ctx context.Context, username, password string) error {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, entities.ErrNotFound) {
		return err
	}
	if existing != nil {
		return entities.ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info("User registered", zap.String("username", username))
	return nil
}

// Login verifies credentials and issues a signed, time-limited token carrying
// the owner identity. Unknown username and wrong password are deliberately
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return "", entities.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", entities.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID.Hex(), user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("User logged in", zap.String("username", username))
	return token, nil
}
