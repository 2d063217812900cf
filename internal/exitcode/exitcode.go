package exitcode

import (
	"os"
	"strings"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (unknown task, missing argument, etc.)
	UsageError = 2

	// CommandFailed indicates a fail-fast step exited non-zero
	CommandFailed = 3

	// CommandNotFound indicates the shell could not resolve a step's command
	CommandNotFound = 4

	// UserAbort indicates the operator declined to continue past a failed step
	UserAbort = 5

	// ConfigError indicates a configuration or template problem
	ConfigError = 6

	// PrerequisiteMissing indicates doctor found a required tool missing
	PrerequisiteMissing = 7

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if code, ok := tgerrors.CodeOf(err); ok {
		switch code {
		case tgerrors.ErrCodeCommandFailed:
			return CommandFailed
		case tgerrors.ErrCodeCommandNotFound:
			return CommandNotFound
		case tgerrors.ErrCodeUserAbort:
			return UserAbort
		case tgerrors.ErrCodeMissingArgument, tgerrors.ErrCodeUnknownTask, tgerrors.ErrCodeInvalidArgument:
			return UsageError
		case tgerrors.ErrCodeMissingKey, tgerrors.ErrCodeInvalidTemplate, tgerrors.ErrCodeEmptyCommand,
			tgerrors.ErrCodeConfigInvalid, tgerrors.ErrCodeDuplicateTask:
			return ConfigError
		case tgerrors.ErrCodePrerequisiteMissing:
			return PrerequisiteMissing
		default:
			return GeneralError
		}
	}

	// Cobra reports its own usage errors as plain strings
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "invalid argument") || strings.Contains(errMsg, "accepts") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (unknown task, invalid or missing arguments)"
	case CommandFailed:
		return "Command failed"
	case CommandNotFound:
		return "Command not found"
	case UserAbort:
		return "Stopped by operator"
	case ConfigError:
		return "Configuration error"
	case PrerequisiteMissing:
		return "Required tool missing"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
