// Package validation holds the local form constraints shared by the console's
// actions. Validation failures never reach the network: the offending field's
// message is returned to the form as-is.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Password length floors. Login and the authenticated reset keep the legacy
// floor; first-access and profile passwords use the stricter one.
const (
	MinPasswordLength       = 6
	MinStrongPasswordLength = 8
	MinNameLength           = 2
	MaxEmailLength          = 255
)

// emailPattern accepts what the backend accepts; final authority stays with
// the API, this only catches obvious typos before a network call.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CheckEmail validates an email field, returning message on failure.
func CheckEmail(value, message string) error {
	if len(value) > MaxEmailLength || !emailPattern.MatchString(value) {
		return errors.New(message)
	}
	return nil
}

// CheckMinLength validates a minimum rune count, returning message on failure.
func CheckMinLength(value string, min int, message string) error {
	if utf8.RuneCountInString(value) < min {
		return errors.New(message)
	}
	return nil
}

// CheckRequired validates a non-blank field, returning message on failure.
func CheckRequired(value, message string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(message)
	}
	return nil
}

// CheckMatch validates that two fields are equal, returning message on failure.
func CheckMatch(a, b, message string) error {
	if a != b {
		return errors.New(message)
	}
	return nil
}
