package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	slugRegex  = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &FieldError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return &FieldError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return &FieldError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return &FieldError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &FieldError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return &FieldError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateSlug checks identifiers such as lesson IDs and lesson types:
// lowercase letters, digits, '-' and '_', at most 64 characters.
func ValidateSlug(field, value string) error {
	if value == "" {
		return &FieldError{Field: field, Message: field + " is required"}
	}
	if !slugRegex.MatchString(value) {
		return &FieldError{Field: field, Message: "invalid " + field}
	}
	return nil
}
