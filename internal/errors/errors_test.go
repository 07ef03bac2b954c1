package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNewXtagsError(t *testing.T) {
	cause := errors.New("underlying error")

	err := NewXtagsError(ParserSpawnFailed, "could not start parser", cause)

	if err.Code != ParserSpawnFailed {
		t.Errorf("Code = %v, want %v", err.Code, ParserSpawnFailed)
	}
	if err.Message != "could not start parser" {
		t.Errorf("Message = %q, want %q", err.Message, "could not start parser")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestXtagsError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      ParserIO,
			message:   "write failed",
			cause:     errors.New("broken pipe"),
			wantParts: []string{"PARSER_IO", "write failed", "broken pipe"},
		},
		{
			name:      "without cause",
			code:      ResponseInvalid,
			message:   "reply is not a JSON array",
			cause:     nil,
			wantParts: []string{"RESPONSE_INVALID", "reply is not a JSON array"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewXtagsError(tt.code, tt.message, tt.cause)
			got := err.Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestXtagsError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewXtagsError(InternalError, "something went wrong", cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	errNoCause := NewXtagsError(ParserTerminated, "request after shutdown", nil)
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap() on error without cause should return nil")
	}
}

func TestXtagsError_As(t *testing.T) {
	var wrapped error = NewXtagsError(KindsInvalid, "empty kind name", nil)

	var xe *XtagsError
	if !errors.As(wrapped, &xe) {
		t.Fatal("errors.As should match *XtagsError")
	}
	if xe.Code != KindsInvalid {
		t.Errorf("Code = %v, want %v", xe.Code, KindsInvalid)
	}
}

func TestXtagsError_WithDetails(t *testing.T) {
	err := NewXtagsError(ResponseInvalid, "missing field", nil)
	details := map[string]string{"field": "line"}

	result := err.WithDetails(details)

	if result != err {
		t.Error("WithDetails should return the same error for chaining")
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		wantNil bool
	}{
		{ParserUnconfigured, false},
		{ParserSpawnFailed, false},
		{KindsInvalid, false},
		{StoreFailed, false},
		{ResponseInvalid, true}, // No predefined fixes
		{ParserIO, true},        // No predefined fixes
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			fixes := GetSuggestedFixes(tt.code)

			if tt.wantNil && fixes != nil {
				t.Errorf("GetSuggestedFixes(%v) = %v, want nil", tt.code, fixes)
			}
			if !tt.wantNil && len(fixes) == 0 {
				t.Errorf("GetSuggestedFixes(%v) returned no fixes", tt.code)
			}
		})
	}
}

func TestErrorCodesUnique(t *testing.T) {
	codes := []ErrorCode{
		ParserUnconfigured,
		ParserSpawnFailed,
		ParserIO,
		ParserTerminated,
		ResponseInvalid,
		KindsInvalid,
		TemplateInvalid,
		ConfigInvalid,
		InputUnreadable,
		StoreFailed,
		ExportFailed,
		InternalError,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %v", code)
		}
		seen[code] = true

		if string(code) == "" {
			t.Error("Error code should not be empty")
		}
	}
}

func TestErrorActionsMap(t *testing.T) {
	for code, fixes := range ErrorActions {
		if len(fixes) == 0 {
			t.Errorf("ErrorActions[%v] has no fix actions", code)
		}
		for i, fix := range fixes {
			if fix.Type == "" {
				t.Errorf("ErrorActions[%v][%d].Type is empty", code, i)
			}
		}
	}
}
