package errors

import (
	stderrors "errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeCellNotFound, "cell %s not found", "abc")
	if got := err.Error(); got != "CELL_NOT_FOUND: cell abc not found" {
		t.Errorf("Error() = %q", got)
	}

	cause := stderrors.New("connection refused")
	wrapped := Wrap(ErrCodeNetwork, cause, "execute cell %s", "abc")
	if !strings.Contains(wrapped.Error(), "connection refused") {
		t.Errorf("wrapped message lost the cause: %q", wrapped.Error())
	}
	if !stderrors.Is(wrapped, cause) {
		t.Error("Unwrap must expose the cause to errors.Is")
	}
}

func TestIsAndGetCode(t *testing.T) {
	err := New(ErrCodeInvalidGeometry, "bad x")
	if !Is(err, ErrCodeInvalidGeometry) {
		t.Error("Is must match the code")
	}
	if Is(err, ErrCodeInvalidInput) {
		t.Error("Is must not match a different code")
	}
	if Is(nil, ErrCodeInvalidInput) {
		t.Error("Is(nil) must be false")
	}

	// Codes survive fmt wrapping.
	wrapped := fmt.Errorf("handling request: %w", err)
	if !Is(wrapped, ErrCodeInvalidGeometry) {
		t.Error("Is must unwrap standard wrappers")
	}
	if GetCode(wrapped) != ErrCodeInvalidGeometry {
		t.Errorf("GetCode = %q", GetCode(wrapped))
	}
	if GetCode(stderrors.New("plain")) != "" {
		t.Error("GetCode on a plain error must be empty")
	}
}

func TestUserMessageAndHint(t *testing.T) {
	err := New(ErrCodeDirNotFound, "no such directory")
	if got := UserMessage(err); got != "no such directory" {
		t.Errorf("UserMessage = %q", got)
	}

	hinted := err.WithHint("resolved path: /home/user/missing")
	if got := UserMessage(hinted); !strings.Contains(got, "/home/user/missing") {
		t.Errorf("UserMessage with hint = %q", got)
	}
	// WithHint copies; the original is untouched.
	if err.Hint != "" {
		t.Error("WithHint must not mutate the receiver")
	}

	if got := UserMessage(stderrors.New("plain failure")); got != "plain failure" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestValidateFinite(t *testing.T) {
	if err := ValidateFinite("x", 1.5); err != nil {
		t.Errorf("finite value rejected: %v", err)
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := ValidateFinite("x", v)
		if !Is(err, ErrCodeInvalidGeometry) {
			t.Errorf("ValidateFinite(%v) = %v, want INVALID_GEOMETRY", v, err)
		}
	}
}

func TestValidateDocumentName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"simple", "My Notebook", true},
		{"unicode", "ノート", true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 257), false},
		{"control char", "bad\x00name", false},
		{"slash", "a/b", false},
		{"backslash", "a\\b", false},
	}
	for _, tt := range tests {
		err := ValidateDocumentName(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("%s: ValidateDocumentName(%q) = %v", tt.name, tt.input, err)
		}
		if err != nil && !Is(err, ErrCodeInvalidInput) {
			t.Errorf("%s: code = %q, want INVALID_INPUT", tt.name, GetCode(err))
		}
	}
}

func TestValidateWorkspacePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"relative", "notes/analysis.ipynb", true},
		{"plain", "nb.ipynb", true},
		{"empty", "", false},
		{"traversal", "../../etc/passwd", false},
		{"embedded traversal", "a/../b", false},
		{"backslash", "a\\b", false},
		{"null byte", "a\x00b", false},
		{"too long", strings.Repeat("a", 501), false},
	}
	for _, tt := range tests {
		err := ValidateWorkspacePath(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("%s: ValidateWorkspacePath(%q) = %v", tt.name, tt.input, err)
		}
		if err != nil && !Is(err, ErrCodeInvalidPath) {
			t.Errorf("%s: code = %q, want INVALID_PATH", tt.name, GetCode(err))
		}
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("http://127.0.0.1:8787"); err != nil {
		t.Errorf("http URL rejected: %v", err)
	}
	if err := ValidateURL("https://collab.local"); err != nil {
		t.Errorf("https URL rejected: %v", err)
	}
	for _, raw := range []string{"", "ftp://host", "127.0.0.1:8787"} {
		if err := ValidateURL(raw); !Is(err, ErrCodeInvalidInput) {
			t.Errorf("ValidateURL(%q) = %v, want INVALID_INPUT", raw, err)
		}
	}
}
