package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateFieldName validates a JSON field name used for a synthetic
// property (reference tag, type tag, identity).
//
// The rules:
//   - No empty names
//   - No control characters
//   - Maximum length of 64 characters
func ValidateFieldName(name string) error {
	if name == "" {
		return New(ErrCodeConfiguration, "field name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeConfiguration, "field name too long (max 64 characters): %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeConfiguration, "field name contains control characters: %q", name)
		}
	}
	return nil
}

// ValidateFieldNames validates each synthetic field name and checks that
// they are pairwise distinct. Empty names are skipped so that optional
// fields (the identity field when ids are disabled) can be passed as "".
func ValidateFieldNames(names ...string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if err := ValidateFieldName(n); err != nil {
			return err
		}
		if seen[n] {
			return New(ErrCodeConfiguration, "field name %q is used for more than one synthetic property", n)
		}
		seen[n] = true
	}
	return nil
}

// ValidateURI validates a document URI.
// Relative references are accepted; opaque junk is not.
func ValidateURI(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidURI, "URI cannot be empty")
	}
	if strings.ContainsAny(raw, "\x00\n\r") {
		return New(ErrCodeInvalidURI, "URI contains invalid characters")
	}
	if _, err := url.Parse(raw); err != nil {
		return Wrap(ErrCodeInvalidURI, err, "invalid URI %q", raw)
	}
	return nil
}

// ValidateKey validates a storage key for safety.
// Keys are used as file names by some stores, so traversal sequences
// are rejected.
func ValidateKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "key cannot be empty")
	}
	if len(key) > 1024 {
		return New(ErrCodeInvalidInput, "key too long (max 1024 characters)")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "key contains invalid control characters")
		}
	}
	if strings.Contains(key, "..") {
		return New(ErrCodeInvalidInput, "key cannot contain path traversal sequences (..)")
	}
	return nil
}
