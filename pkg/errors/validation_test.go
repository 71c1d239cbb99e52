package errors

import (
	"strings"
	"testing"
)

func TestValidateFieldName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"reference tag", "$ref", false},
		{"type tag", "eClass", false},
		{"identity", "@id", false},

		{"empty", "", true},
		{"too long", strings.Repeat("x", 65), true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFieldName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFieldName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeConfiguration) {
				t.Errorf("ValidateFieldName(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateFieldNames(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantErr bool
	}{
		{"defaults", []string{"$ref", "eClass", "@id"}, false},
		{"identity disabled", []string{"$ref", "eClass", ""}, false},
		{"collision", []string{"$ref", "$ref", "@id"}, true},
		{"invalid member", []string{"$ref", "a\x00b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFieldNames(tt.input...)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFieldNames(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURI(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"file", "file:///tmp/a.json", false},
		{"http", "https://example.com/docs/a.json", false},
		{"relative", "b.json#//@friends.0", false},
		{"fragment only", "#/0", false},

		{"empty", "", true},
		{"newline", "a\nb", true},
		{"bad escape", "http://x/%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURI(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURI(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "users.json", false},
		{"nested", "tenants/acme/users.json", false},

		{"empty", "", true},
		{"too long", strings.Repeat("k", 1025), true},
		{"traversal", "../etc/passwd", true},
		{"control char", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeStructural,
		ErrCodeUnknownField,
		ErrCodeUnknownType,
		ErrCodeUnresolvedReference,
		ErrCodeInvalidValue,
		ErrCodeInvalidKey,
		ErrCodeOperationFailed,
		ErrCodeInvalidInput,
		ErrCodeInvalidSchema,
		ErrCodeInvalidURI,
		ErrCodeConfiguration,
		ErrCodeNotFound,
		ErrCodeDocumentNotFound,
		ErrCodeNetwork,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
