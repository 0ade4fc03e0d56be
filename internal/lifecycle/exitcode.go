// Package lifecycle implements the Lifecycle & Retry component (C12):
// process exit codes, signal handling and cleanup ordering, the
// collaborator retry policy, and a bounded worker pool for bulk
// operations over multiple workflows.
package lifecycle

// ExitCode is the closed set of process result codes.
type ExitCode int

const (
	ExitSuccess       ExitCode = 0
	ExitUsageError    ExitCode = 64
	ExitDataError     ExitCode = 65
	ExitMissingInput  ExitCode = 66
	ExitIOError       ExitCode = 70
	ExitTransient     ExitCode = 71
	ExitProtocolError ExitCode = 72
	ExitAuthError     ExitCode = 73
	ExitConfigError   ExitCode = 78
	ExitInterrupted   ExitCode = 130
	ExitTerminated    ExitCode = 143
)

// CLIError is a user-facing error carrying the exit code the top-level
// command handler maps to os.Exit, and a human-readable hint. Errors
// shown to the user omit stack traces and render with a distinct short
// code, a human message, and at least one actionable hint.
type CLIError struct {
	Code    string
	Exit    ExitCode
	Message string
	Hint    string
	Cause   error
}

func (e *CLIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CLIError) Unwrap() error { return e.Cause }

// NewCLIError constructs a CLIError with at least one hint, defaulting to
// a generic one if the caller provides none (every user-visible error
// must carry an actionable hint).
func NewCLIError(code string, exit ExitCode, message, hint string, cause error) *CLIError {
	if hint == "" {
		hint = "re-run with --debug for more detail"
	}
	return &CLIError{Code: code, Exit: exit, Message: message, Hint: hint, Cause: cause}
}
