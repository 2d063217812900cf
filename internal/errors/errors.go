package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Execution errors (EXEC-001 to EXEC-099)
	ErrCodeCommandNotFound ErrorCode = "EXEC-001"
	ErrCodeCommandFailed   ErrorCode = "EXEC-002"
	ErrCodeInvalidCommand  ErrorCode = "EXEC-003"

	// Failure gate errors (GATE-001 to GATE-099)
	ErrCodeUserAbort ErrorCode = "GATE-001"

	// Task errors (TASK-001 to TASK-099)
	ErrCodeMissingArgument ErrorCode = "TASK-001"
	ErrCodeUnknownTask     ErrorCode = "TASK-002"
	ErrCodeInvalidArgument ErrorCode = "TASK-003"
	ErrCodeDuplicateTask   ErrorCode = "TASK-004"

	// Environment errors (ENV-001 to ENV-099)
	ErrCodeMissingKey      ErrorCode = "ENV-001"
	ErrCodeInvalidTemplate ErrorCode = "ENV-002"
	ErrCodeEmptyCommand    ErrorCode = "ENV-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"

	// Prerequisite errors (HEALTH-001 to HEALTH-099)
	ErrCodePrerequisiteMissing ErrorCode = "HEALTH-001"
)

// Sentinels for errors.Is checks. They match any TaskgateError carrying the
// same code, however deeply it is wrapped.
var (
	ErrCommandNotFound = &TaskgateError{Code: ErrCodeCommandNotFound}
	ErrCommandFailed   = &TaskgateError{Code: ErrCodeCommandFailed}
	ErrInvalidCommand  = &TaskgateError{Code: ErrCodeInvalidCommand}
	ErrUserAbort       = &TaskgateError{Code: ErrCodeUserAbort}
	ErrMissingArgument = &TaskgateError{Code: ErrCodeMissingArgument}
	ErrUnknownTask     = &TaskgateError{Code: ErrCodeUnknownTask}
	ErrInvalidArgument = &TaskgateError{Code: ErrCodeInvalidArgument}
	ErrDuplicateTask   = &TaskgateError{Code: ErrCodeDuplicateTask}
	ErrMissingKey      = &TaskgateError{Code: ErrCodeMissingKey}
	ErrInvalidTemplate = &TaskgateError{Code: ErrCodeInvalidTemplate}
	ErrEmptyCommand    = &TaskgateError{Code: ErrCodeEmptyCommand}
	ErrConfigInvalid   = &TaskgateError{Code: ErrCodeConfigInvalid}

	ErrPrerequisiteMissing = &TaskgateError{Code: ErrCodePrerequisiteMissing}
)

// AbortMessage is printed when the operator declines to continue past a failed step.
const AbortMessage = "Stopped execution per user request."

// TaskgateError represents an enhanced error with code, suggestions, and cause
type TaskgateError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *TaskgateError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *TaskgateError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a TaskgateError with the same code.
func (e *TaskgateError) Is(target error) bool {
	t, ok := target.(*TaskgateError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// New creates a new TaskgateError
func New(code ErrorCode, message string) *TaskgateError {
	return &TaskgateError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new TaskgateError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *TaskgateError {
	return &TaskgateError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *TaskgateError) WithSuggestion(suggestion string) *TaskgateError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *TaskgateError) WithSuggestions(suggestions ...string) *TaskgateError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// CodeOf returns the code of the first TaskgateError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var tgErr *TaskgateError
	if stderrors.As(err, &tgErr) {
		return tgErr.Code, true
	}
	return "", false
}

// Common error constructors for frequently used errors

// NewCommandNotFoundError creates an error for a command the shell could not resolve
func NewCommandNotFoundError(command string, cause error) *TaskgateError {
	return Wrap(ErrCodeCommandNotFound, fmt.Sprintf("command not found: %s", command), cause).
		WithSuggestion("Check that the executable is installed and on your PATH").
		WithSuggestion("Override the entry point with --set run=\"<command>\" if the project uses a different one")
}

// NewCommandFailedError creates an error for a command that exited non-zero
func NewCommandFailedError(command string, exitCode int) *TaskgateError {
	return New(ErrCodeCommandFailed, fmt.Sprintf("command failed with exit status %d: %s", exitCode, command))
}

// NewUserAbortError creates the error returned when the operator stops a run
func NewUserAbortError(cause error) *TaskgateError {
	return Wrap(ErrCodeUserAbort, AbortMessage, cause)
}

// NewMissingArgumentError creates an error for a required task parameter that was not supplied
func NewMissingArgumentError(taskName, param string) *TaskgateError {
	return New(ErrCodeMissingArgument, fmt.Sprintf("missing argument %q for task %s", param, taskName)).
		WithSuggestion(fmt.Sprintf("Pass it positionally or as %s=<value>", param)).
		WithSuggestion(fmt.Sprintf("Run 'taskgate %s --help' to see its parameters", taskName))
}

// NewUnknownTaskError creates an error for a task name that is not registered
func NewUnknownTaskError(name string) *TaskgateError {
	return New(ErrCodeUnknownTask, fmt.Sprintf("unknown task: %s", name)).
		WithSuggestion("Run 'taskgate list' to see available tasks")
}

// NewMissingKeyError creates an error for a template placeholder with no value
func NewMissingKeyError(key, template string) *TaskgateError {
	return New(ErrCodeMissingKey, fmt.Sprintf("no value for {%s} in %q", key, template)).
		WithSuggestion(fmt.Sprintf("Define it with --set %s=<value> or under settings: in taskgate.yaml", key))
}
