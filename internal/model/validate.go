package model

import (
	"regexp"
	"strings"
)

// MinPasswordLength is the shortest password accepted at sign-in.
const MinPasswordLength = 6

// Basic any@any.any shape. Not exhaustive.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)*$`)

// ValidateListName checks a list name before it is submitted.
func ValidateListName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "Name Required")
	}
	return nil
}

// ValidateEmail checks the sign-in email field.
func ValidateEmail(email string) error {
	if email == "" {
		return NewValidationError("email", "Email Required")
	}
	if !emailPattern.MatchString(email) {
		return NewValidationError("email", "Enter a valid email")
	}
	return nil
}

// ValidatePassword checks the sign-in password field.
func ValidatePassword(password string) error {
	if password == "" {
		return NewValidationError("password", "Password Required")
	}
	if len(password) < MinPasswordLength {
		return NewValidationError("password", "Password Too Short")
	}
	return nil
}

// ValidateCredentials runs the email check, then the password check.
func ValidateCredentials(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateColor checks a #rrggbb list color. Empty means the default.
func ValidateColor(color string) error {
	if color != "" && !colorPattern.MatchString(color) {
		return NewValidationError("color", "Use #rrggbb")
	}
	return nil
}
