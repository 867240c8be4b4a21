// Package invite generates project invitation codes.
package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gurkanbulca/teamboard/internal/apperr"
)

// CodeLength is the number of hex characters in a code (48 bits)
const CodeLength = 12

// DefaultAttempts bounds re-rolls after a uniqueness collision
const DefaultAttempts = 3

var codePattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

// Generate returns a fresh 12-character lowercase hex code
func Generate() (string, error) {
	buf := make([]byte, CodeLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidFormat reports whether code has the invitation code shape
func ValidFormat(code string) bool {
	return codePattern.MatchString(code)
}

// Normalize canonicalizes a typed code. Codes are matched case-insensitively
// and surrounding whitespace is ignored.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Manager hands out codes and re-rolls when the store rejects a duplicate
type Manager struct {
	attempts int
	generate func() (string, error)
}

// NewManager creates a manager. attempts <= 0 selects DefaultAttempts and a
// nil generate selects Generate.
func NewManager(attempts int, generate func() (string, error)) *Manager {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if generate == nil {
		generate = Generate
	}
	return &Manager{attempts: attempts, generate: generate}
}

// WithUniqueCode calls fn with a new code until fn stops reporting
// apperr.ErrConflict or the attempts run out.
func (m *Manager) WithUniqueCode(ctx context.Context, fn func(code string) error) error {
	var lastErr error
	for i := 0; i < m.attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		code, err := m.generate()
		if err != nil {
			return err
		}
		err = fn(code)
		if err == nil || !errors.Is(err, apperr.ErrConflict) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: no unique invitation code after %d attempts: %v",
		apperr.ErrTransaction, m.attempts, lastErr)
}
