package utils

import (
	"fmt"
	"regexp"
)

var EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationRules contains validation configuration
type ValidationRules struct {
	MaxNameLength     int
	MinPasswordLength int
}

// DefaultValidationRules provides default validation constraints
var DefaultValidationRules = ValidationRules{
	MaxNameLength:     100,
	MinPasswordLength: 8,
}

// ValidateEmail checks if email format is valid
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateName checks if name meets requirements
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > DefaultValidationRules.MaxNameLength {
		return fmt.Errorf("name must be less than %d characters", DefaultValidationRules.MaxNameLength)
	}
	return nil
}

// ValidatePassword checks if password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < DefaultValidationRules.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", DefaultValidationRules.MinPasswordLength)
	}
	return nil
}
