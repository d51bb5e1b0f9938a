package common

import (
	"strconv"
	"strings"
)

// AtoiDefault converts the provided string to an integer falling back to the default when parsing fails.
func AtoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// IntOr returns *v, or def when the optional value is absent.
func IntOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// BoolOr returns *v, or def when the optional value is absent.
func BoolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// TrimmedOrNil returns nil for blank strings.
func TrimmedOrNil(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
