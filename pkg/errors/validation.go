package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxKeyLength bounds document names so every backend can use them as keys.
const maxKeyLength = 200

// ValidateKey validates a document name for use as a storage key. Names
// must be non-empty, at most 200 bytes, and free of control characters, path
// separators and "..", so the file backend can never leave its directory.
func ValidateKey(name string) error {
	if name == "" {
		return New(ErrCodeInvalidKey, "document name cannot be empty")
	}

	if len(name) > maxKeyLength {
		return New(ErrCodeInvalidKey, "document name too long (max %d characters)", maxKeyLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "document name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidKey, "document name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// hexColorRegex matches #RGB and #RRGGBB colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// ValidateColor reports whether color is a #RGB or #RRGGBB hex color.
func ValidateColor(color string) error {
	if color == "" {
		return New(ErrCodeInvalidColor, "color cannot be empty")
	}
	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidColor, "invalid hex color: %q", color)
	}
	return nil
}
