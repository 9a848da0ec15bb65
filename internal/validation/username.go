package validation

import (
	"errors"
	"regexp"
)

var ErrInvalidUsername = errors.New("username must be 4-20 characters, start with a letter and contain only latin letters and digits")

// 4-20 chars, must start with a letter, latin letters and digits only
var usernameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]{3,19}$`)

// ValidateUsername validates login name format
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}

	return nil
}
