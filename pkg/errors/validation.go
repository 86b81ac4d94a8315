package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// It rejects names that could be used for path traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., backslash)
//   - No null bytes
//   - Maximum length of 256 characters
//
// Registry-specific shape requirements (e.g. GitHub slugs for zig packages)
// are enforced separately by the registry clients.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateVersion validates a version string before it is interpolated into
// an upstream URL. Versions are registry-defined opaque strings; only shapes
// that could escape the URL path are rejected.
func ValidateVersion(version string) error {
	if version == "" {
		return New(ErrCodeInvalidInput, "version cannot be empty")
	}
	if len(version) > 128 {
		return New(ErrCodeInvalidInput, "version too long (max 128 characters)")
	}
	if strings.ContainsAny(version, "\x00\\") || strings.Contains(version, "..") {
		return New(ErrCodeInvalidInput, "version contains invalid characters")
	}
	for _, r := range version {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "version contains invalid control characters")
		}
	}
	return nil
}
