// pkg/auth/password.go
package auth

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWeakPassword = errors.New("password does not meet requirements")
)

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// PasswordManager handles password hashing and validation
type PasswordManager struct {
	cost          int
	minLength     int
	requireUpper  bool
	requireLower  bool
	requireNumber bool
}

// NewPasswordManager creates a new password manager with default settings
func NewPasswordManager() *PasswordManager {
	return NewPasswordManagerWithCost(12)
}

// NewPasswordManagerWithCost lets tests trade hash strength for speed
func NewPasswordManagerWithCost(cost int) *PasswordManager {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	return &PasswordManager{
		cost:          cost,
		minLength:     8,
		requireUpper:  true,
		requireLower:  true,
		requireNumber: true,
	}
}

// HashPassword hashes a password using bcrypt
func (pm *PasswordManager) HashPassword(password string) (string, error) {
	if err := pm.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), pm.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword compares a password with a hash
func (pm *PasswordManager) ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword checks if a password meets the requirements
func (pm *PasswordManager) ValidatePassword(password string) error {
	if len(password) < pm.minLength {
		return fmt.Errorf("%w: minimum length is %d characters", ErrWeakPassword, pm.minLength)
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if pm.requireUpper && !hasUpper {
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrWeakPassword)
	}
	if pm.requireLower && !hasLower {
		return fmt.Errorf("%w: must contain at least one lowercase letter", ErrWeakPassword)
	}
	if pm.requireNumber && !hasNumber {
		return fmt.Errorf("%w: must contain at least one number", ErrWeakPassword)
	}
	return nil
}

// ValidateHandle validates a user handle
func ValidateHandle(handle string) error {
	if len(handle) < 3 {
		return errors.New("handle must be at least 3 characters")
	}
	if len(handle) > 50 {
		return errors.New("handle must not exceed 50 characters")
	}
	if !handlePattern.MatchString(handle) {
		return errors.New("handle can only contain letters, numbers, underscore, and hyphen")
	}
	return nil
}
