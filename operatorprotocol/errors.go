package operatorprotocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for the Operator protocol.
var (
	// ErrResponseTooLong indicates a response exceeded MaxResponseLength.
	ErrResponseTooLong = errors.New("response too long")

	// ErrTimeout indicates a command timed out waiting for the prompt.
	ErrTimeout = errors.New("command timed out")

	// ErrNotConnected indicates an operation was attempted without a connection.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected indicates connect was called while already connected.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrMultiLineCommand indicates a command contained a line break and
	// would have been read by the Operator as several commands.
	ErrMultiLineCommand = errors.New("command contains a line break")
)

// ConnectionError represents a connection-related error.
type ConnectionError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("connection failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) error {
	return &ConnectionError{Message: message, Cause: cause}
}
