package operatorprotocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Quote wraps s in double quotes. Embedded quotes are not escaped; callers
// that pass arbitrary text should use EscapeLine instead.
func Quote(s string) string {
	return `"` + s + `"`
}

// FormatValue renders a numeric value in a stable decimal form: no exponent,
// no trailing zeros ("3", "0.25", "-12.5").
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Command constructors. Each returns the command line without terminator.

// SetParameterCommand creates "set parameter "<name>" "<value>"".
func SetParameterCommand(name, value string) string {
	return "set parameter " + Quote(name) + " " + Quote(value)
}

// SetNamedParameterCommand creates "set parameter <name> "<value>"", the form
// used for identity parameters whose names are known to be plain words.
func SetNamedParameterCommand(name, value string) string {
	return "set parameter " + name + " " + Quote(value)
}

// IsParameterCommand creates "is parameter "<name>"".
func IsParameterCommand(name string) string {
	return "is parameter " + Quote(name)
}

// GetParameterCommand creates "get parameter "<name>"".
func GetParameterCommand(name string) string {
	return "get parameter " + Quote(name)
}

// AddParameterLineCommand creates "add parameter <line>" with the line escaped.
func AddParameterLineCommand(line string) string {
	return "add parameter " + EscapeLine(line)
}

// SetParameterLineCommand creates "set parameter <line>" with the line escaped.
func SetParameterLineCommand(line string) string {
	return "set parameter " + EscapeLine(line)
}

// LoadParametersCommand creates "load parameters "<path>"".
func LoadParametersCommand(path string) string {
	return "load parameters " + Quote(path)
}

// AddStateCommand creates "add state "<name>" <bitWidth> <initialValue>".
func AddStateCommand(name string, bitWidth int, initialValue float64) string {
	return fmt.Sprintf("add state %s %d %s", Quote(name), bitWidth, FormatValue(initialValue))
}

// SetStateCommand creates "set state "<name>" <value>".
func SetStateCommand(name string, value float64) string {
	return "set state " + Quote(name) + " " + FormatValue(value)
}

// GetStateCommand creates "get state "<name>"".
func GetStateCommand(name string) string {
	return "get state " + Quote(name)
}

// WaitForCommand creates "wait for <state>". The state may be an alternation
// such as "Resting|Initialization".
func WaitForCommand(state string) string {
	return "wait for " + state
}

// GetSystemStateCommand creates "get system state".
func GetSystemStateCommand() string {
	return "get system state"
}

// ShutdownSystemCommand creates "shutdown system".
func ShutdownSystemCommand() string {
	return "shutdown system"
}

// StartupSystemCommand creates "startup system <host>".
func StartupSystemCommand(host string) string {
	return "startup system " + host
}

// StartExecutableCommand creates "start executable <module> <args...>".
func StartExecutableCommand(module string, args []string) string {
	if len(args) == 0 {
		return "start executable " + module
	}
	return "start executable " + module + " " + strings.Join(args, " ")
}

// SetConfigCommand creates "set config".
func SetConfigCommand() string {
	return "set config"
}

// StartSystemCommand creates "start system".
func StartSystemCommand() string {
	return "start system"
}

// StopSystemCommand creates "stop system".
func StopSystemCommand() string {
	return "stop system"
}

// CaptureMessagesCommand creates "capture messages <kinds...>". With no
// kinds, "none" is sent, which stops all message capture.
func CaptureMessagesCommand(kinds ...string) string {
	if len(kinds) == 0 {
		return "capture messages none"
	}
	return "capture messages " + strings.Join(kinds, " ")
}

// FlushMessagesCommand creates "flush messages".
func FlushMessagesCommand() string {
	return "flush messages"
}

// SetTitleCommand creates "set title "<title>"".
func SetTitleCommand(title string) string {
	return "set title " + Quote(title)
}

// WindowCommand creates "show window" or "hide window".
func WindowCommand(visible bool) string {
	if visible {
		return "show window"
	}
	return "hide window"
}
