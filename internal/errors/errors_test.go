package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnknownTask, "test error message")

	if err.Code != ErrCodeUnknownTask {
		t.Errorf("expected code %s, got %s", ErrCodeUnknownTask, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeConfigInvalid, "failed to read config", cause)

	if err.Code != ErrCodeConfigInvalid {
		t.Errorf("expected code %s, got %s", ErrCodeConfigInvalid, err.Code)
	}

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *TaskgateError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeInvalidTemplate, "unterminated placeholder"),
			wantCode: "ENV-002",
			wantMsg:  "unterminated placeholder",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeCommandNotFound, "command not found", fmt.Errorf("exec: \"sh\": not found")),
			wantCode: "EXEC-001",
			wantMsg:  "not found",
		},
		{
			name:     "user abort",
			err:      NewUserAbortError(nil),
			wantCode: "GATE-001",
			wantMsg:  AbortMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestions(t *testing.T) {
	err := New(ErrCodeMissingKey, "no value").
		WithSuggestion("first").
		WithSuggestions("second", "third")

	if len(err.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(err.Suggestions))
	}
	if !strings.Contains(err.Error(), "Suggestions:") {
		t.Errorf("expected suggestions section in %q", err.Error())
	}
}

func TestIsMatchesByCode(t *testing.T) {
	abort := NewUserAbortError(nil)
	wrapped := fmt.Errorf("task initialize: %w", abort)

	if !errors.Is(wrapped, ErrUserAbort) {
		t.Error("wrapped abort should match ErrUserAbort")
	}
	if errors.Is(wrapped, ErrCommandFailed) {
		t.Error("abort must not match ErrCommandFailed")
	}
	if errors.Is(fmt.Errorf("plain"), ErrUserAbort) {
		t.Error("plain error must not match ErrUserAbort")
	}
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(fmt.Errorf("outer: %w", NewCommandFailedError("false", 1)))
	if !ok || code != ErrCodeCommandFailed {
		t.Errorf("CodeOf() = %q, %v; want %q, true", code, ok, ErrCodeCommandFailed)
	}

	if _, ok := CodeOf(fmt.Errorf("plain")); ok {
		t.Error("CodeOf() should report false for non-taskgate errors")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *TaskgateError
		wantCode ErrorCode
		contains string
	}{
		{"command not found", NewCommandNotFoundError("djangoadmin", nil), ErrCodeCommandNotFound, "djangoadmin"},
		{"command failed", NewCommandFailedError("false", 1), ErrCodeCommandFailed, "exit status 1"},
		{"missing argument", NewMissingArgumentError("startapp", "app"), ErrCodeMissingArgument, `"app"`},
		{"unknown task", NewUnknownTaskError("deploy"), ErrCodeUnknownTask, "deploy"},
		{"missing key", NewMissingKeyError("run", "{run} migrate"), ErrCodeMissingKey, "{run}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("error %q should contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}
