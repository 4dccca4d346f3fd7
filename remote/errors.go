package remote

import "errors"

// Sentinel errors returned by Remote operations. The human-readable text the
// Operator's users expect is available from Remote.Result after a failure.
var (
	// ErrCommandFailed indicates a command's response did not pass the
	// success heuristic. The raw text is in Remote.Response.
	ErrCommandFailed = errors.New("command failed")

	// ErrAlreadyRunning indicates Start was called while the system runs.
	ErrAlreadyRunning = errors.New("system is already running")

	// ErrNotRunning indicates Stop was called while the system is not running.
	ErrNotRunning = errors.New("system is not running")

	// ErrInvalidParameter indicates GetParameter was asked for a name the
	// Operator does not know.
	ErrInvalidParameter = errors.New("invalid parameter name")

	// ErrInvalidValue indicates a state value could not be parsed as a number.
	ErrInvalidValue = errors.New("invalid value")

	// ErrModuleStartup indicates at least one module failed to start.
	ErrModuleStartup = errors.New("could not start modules")
)

// Result messages. These are the texts stored in Remote.Result.
const (
	resultAlreadyRunning = "System is already running"
	resultNotRunning     = "System is not running"
	resultModulesFailed  = "Could not start modules:"
)
