package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeInvalidInput, "bad query"),
			want: "INVALID_INPUT: bad query",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeNetwork, stderrors.New("connection refused"), "fetch failed"),
			want: "NETWORK_ERROR: fetch failed: connection refused",
		},
		{
			name: "formatted message",
			err:  New(ErrCodePackageNotFound, "package %s not found", "left-pad"),
			want: "PACKAGE_NOT_FOUND: package left-pad not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeInvalidSlug, "not a github slug")

	if !Is(err, ErrCodeInvalidSlug) {
		t.Error("Is() should match the error's own code")
	}
	if Is(err, ErrCodeNetwork) {
		t.Error("Is() should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeNetwork) {
		t.Error("Is() should not match plain errors")
	}
}

func TestIs_Wrapped(t *testing.T) {
	inner := New(ErrCodeParse, "bad json")
	outer := fmt.Errorf("search: %w", inner)

	if !Is(outer, ErrCodeParse) {
		t.Error("Is() should unwrap fmt.Errorf chains")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("timeout")
	err := Wrap(ErrCodeNetwork, cause, "fetch failed")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeNotFound, "missing")); got != ErrCodeNotFound {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeNotFound)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode() on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "empty query")); got != "empty query" {
		t.Errorf("UserMessage() = %q, want %q", got, "empty query")
	}
	if got := UserMessage(stderrors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() on plain error = %q", got)
	}
}

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		wantErr bool
	}{
		{"simple", "express", false},
		{"scoped npm", "@types/node", false},
		{"github slug", "ziglang/zig", false},
		{"empty", "", true},
		{"traversal", "../etc/passwd", true},
		{"double slash", "a//b", true},
		{"backslash", "a\\b", true},
		{"control char", "pkg\x01name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.pkg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.pkg, err, tt.wantErr)
			}
		})
	}
}

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{"semver", "1.2.3", false},
		{"tag", "v0.11.0", false},
		{"branch", "main", false},
		{"empty", "", true},
		{"traversal", "../../1.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVersion(tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVersion(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
		})
	}
}
