package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/ledger"
)

var (
	ErrMissingUsername = errors.New("username is required")
	ErrMissingPassword = errors.New("password is required")
)

// ValidateCredential checks a username/password pair before it is sent.
// Failures wrap ledger.ErrInvalidInput.
func ValidateCredential(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: %w", ledger.ErrInvalidInput, ErrMissingUsername)
	}
	if password == "" {
		return fmt.Errorf("%w: %w", ledger.ErrInvalidInput, ErrMissingPassword)
	}
	return nil
}
