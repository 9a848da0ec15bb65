package validation

import (
	"errors"
	"fmt"
	"net/mail"
)

var ErrInvalidEmail = errors.New("invalid email address")

// ValidateEmail validates email format and length
// Uses Go's built-in net/mail parser which follows RFC 5322
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: required", ErrInvalidEmail)
	}

	// RFC 5321: local part max 64, domain max 255, total max 254 with @
	if len(email) > 254 {
		return fmt.Errorf("%w: too long (max 254 characters)", ErrInvalidEmail)
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return ErrInvalidEmail
	}

	return nil
}
