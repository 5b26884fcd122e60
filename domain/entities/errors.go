package entities

import "errors"

// Sentinel errors shared across the usecase and adapter layers. Handlers map
// these onto response envelope codes with errors.Is.
var (
	ErrNotFound           = errors.New("record not found")
	ErrPlanNotFound       = errors.New("protection plan not found")
	ErrConflict           = errors.New("record already exists")
	ErrInvalidDateRange   = errors.New("purchase date cannot be later than warranty date")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports the first violated constraint of a request payload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error with a human-readable message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}
