package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String length limits
const (
	MaxPackageLength = 255
	MaxNameLength    = 256
	MaxTextLength    = 8192
)

// PackagePattern matches Android application ids: dot-separated segments of
// letters, digits and underscores, each starting with a letter.
var PackagePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)*$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidatePackage validates an application id.
func ValidatePackage(pkg, fieldName string) error {
	if err := ValidateString(pkg, fieldName, 1, MaxPackageLength, true); err != nil {
		return err
	}
	if !PackagePattern.MatchString(pkg) {
		return fmt.Errorf("%s is not a valid package name", fieldName)
	}
	return nil
}

// ValidateText validates optional free text such as a notification body.
func ValidateText(s *string, fieldName string) error {
	if s == nil {
		return nil
	}
	return ValidateString(*s, fieldName, 0, MaxTextLength, false)
}
