package entities

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an owner account. The password is stored as a bcrypt hash,
// never in the clear.
type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	PasswordHash string             `json:"-" bson:"password"`
}

// Validate checks the user's own invariants.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password is required")
	}
	return nil
}
