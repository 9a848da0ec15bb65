package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrWeakPassword = errors.New("password is too weak")

// ValidatePassword validates password strength.
// Requires at least 6 characters with one uppercase letter, one digit and one
// special character.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("%w: must be at least 6 characters", ErrWeakPassword)
	}

	// Maximum length: 72 bytes (bcrypt limitation)
	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return fmt.Errorf("%w: must not exceed 72 characters", ErrWeakPassword)
	}

	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrWeakPassword)
	}
	if !hasDigit {
		return fmt.Errorf("%w: must contain at least one digit", ErrWeakPassword)
	}
	if !strings.ContainsAny(password, `!@#$%^&*(),.?":{}|<>`) {
		return fmt.Errorf(`%w: must contain at least one special character (!@#$%%^&*(),.?":{}|<>)`, ErrWeakPassword)
	}

	return nil
}
