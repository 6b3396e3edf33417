// Package validation provides centralized input validation for companyfacts.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// =============================================================================
// Object Key Validation
// =============================================================================

// MaxKeyLength bounds storage object keys.
const MaxKeyLength = 1024

// ValidateKey validates an object key for the key-value storage backends.
// Keys are slash-separated; empty segments and "." or ".." segments are
// rejected so that a key always names exactly one object.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("key too long: maximum %d characters allowed", MaxKeyLength)
	}

	for i, r := range key {
		if r < 32 || r == 127 {
			return fmt.Errorf("key cannot contain control characters at position %d", i)
		}
		if r == '\\' {
			return fmt.Errorf("key cannot contain '\\' at position %d", i)
		}
	}

	for _, seg := range strings.Split(strings.TrimPrefix(key, "/"), "/") {
		switch seg {
		case "":
			return fmt.Errorf("key cannot contain empty segments")
		case ".", "..":
			return fmt.Errorf("key cannot contain '.' or '..' segments")
		}
	}

	return nil
}

// =============================================================================
// Source Validation
// =============================================================================

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks that addr looks like a contact address. The value is
// sent in the User-Agent header, so whitespace and control characters are
// rejected as well.
func ValidateEmail(addr string) error {
	if addr == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailPattern.MatchString(addr) {
		return fmt.Errorf("invalid email address %q", addr)
	}
	for i, r := range addr {
		if r < 32 || r == 127 || r == '(' || r == ')' {
			return fmt.Errorf("email cannot contain %q at position %d", r, i)
		}
	}
	return nil
}

// =============================================================================
// Frame Prefix Validation
// =============================================================================

// ValidateFramePrefix checks a frame filter prefix. Frames consist of ASCII
// letters and digits (CY2020Q4I), so any other character can never match.
// The empty prefix is allowed and selects the default.
func ValidateFramePrefix(prefix string) error {
	for i, r := range prefix {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return fmt.Errorf("invalid character '%c' at position %d", r, i)
		}
	}
	return nil
}

// =============================================================================
// SQL Literal Escaping
// =============================================================================

// EscapeLiteral escapes s for use inside a single-quoted SQL string literal.
func EscapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
