package operatorprotocol

import (
	"net"
	"strings"
	"time"
)

// Protocol constants.
const (
	// Prompt is the character the Operator prints once a command has completed.
	Prompt = ">"

	// LineTerminator ends every command sent to the Operator.
	LineTerminator = "\r\n"

	// DefaultHost is the host the Operator's telnet interface listens on.
	DefaultHost = "localhost"

	// DefaultPort is the Operator's default telnet port.
	DefaultPort = "3999"

	// DefaultAddress is DefaultHost:DefaultPort.
	DefaultAddress = DefaultHost + ":" + DefaultPort

	// MaxResponseLength bounds the size of a single response in bytes.
	MaxResponseLength = 1 << 20

	// ConnectionTimeout is the default timeout for establishing connections.
	ConnectionTimeout = 5 * time.Second

	// PromptTimeout bounds the wait for the greeting prompt after connecting.
	PromptTimeout = 2 * time.Second

	// CommandTimeout is the default per-command timeout. Zero means no
	// timeout: "wait for" commands block until the Operator reaches the
	// awaited state.
	CommandTimeout time.Duration = 0
)

// System states reported by "get system state".
const (
	StateIdle           = "Idle"
	StateConnected      = "Connected"
	StateInitialization = "Initialization"
	StateResting        = "Resting"
	StateSuspended      = "Suspended"
	StateRunning        = "Running"
)

// NormalizeAddress fills in the default host or port when either is missing.
// "" becomes DefaultAddress, "host" becomes "host:3999" and ":4000" becomes
// "localhost:4000".
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return DefaultAddress
	}
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		// No port present.
		return net.JoinHostPort(address, DefaultPort)
	}
	if host == "" {
		host = DefaultHost
	}
	if port == "" {
		port = DefaultPort
	}
	return net.JoinHostPort(host, port)
}
