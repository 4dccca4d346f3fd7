package operatorprotocol

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"
)

// Connection is the capability the protocol client needs from a transport:
// a session that can be opened and closed and that executes one command at a
// time, returning the raw response text together with its status code.
type Connection interface {
	Connect() error
	Disconnect() error
	IsConnected() bool
	Execute(command string) (response string, status int, err error)

	// ExecuteContext is Execute bounded by ctx. When ctx ends while the
	// command is in flight, the call returns and the session is closed.
	ExecuteContext(ctx context.Context, command string) (response string, status int, err error)
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithConnectTimeout overrides ConnectionTimeout.
func WithConnectTimeout(d time.Duration) ConnOption {
	return func(c *Conn) { c.connectTimeout = d }
}

// WithCommandTimeout sets a per-command timeout. Zero disables it.
func WithCommandTimeout(d time.Duration) ConnOption {
	return func(c *Conn) { c.commandTimeout = d }
}

// WithPromptTimeout overrides PromptTimeout.
func WithPromptTimeout(d time.Duration) ConnOption {
	return func(c *Conn) { c.promptTimeout = d }
}

// Conn is a TCP connection to the Operator's telnet interface.
//
// A response is complete once a prompt line has been received and no more
// data is buffered. Carriage returns are dropped, so responses use "\n"
// line endings. After a read error or timeout the stream position is no
// longer known and the connection is closed.
type Conn struct {
	mu sync.Mutex

	address        string
	connectTimeout time.Duration
	promptTimeout  time.Duration
	commandTimeout time.Duration

	conn        net.Conn
	reader      *bufio.Reader
	isConnected bool
}

var _ Connection = (*Conn)(nil)

// NewConn creates an unconnected Conn for the given address. Missing host or
// port parts are filled in with DefaultHost and DefaultPort.
func NewConn(address string, opts ...ConnOption) *Conn {
	c := &Conn{
		address:        NormalizeAddress(address),
		connectTimeout: ConnectionTimeout,
		promptTimeout:  PromptTimeout,
		commandTimeout: CommandTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Address returns the address the connection dials.
func (c *Conn) Address() string {
	return c.address
}

// IsConnected returns true if the connection is open.
func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

// Connect connects to the Operator.
func (c *Conn) Connect() error {
	return c.ConnectWithContext(context.Background())
}

// ConnectWithContext dials the Operator and consumes its greeting prompt.
func (c *Conn) ConnectWithContext(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isConnected {
		return ErrAlreadyConnected
	}

	if c.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return NewConnectionError("failed to connect to "+c.address, err)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)

	// The Operator prints a prompt as soon as the session opens.
	conn.SetReadDeadline(time.Now().Add(c.promptTimeout))
	if _, err := c.readResponse(); err != nil {
		c.closeLocked()
		return NewConnectionError("no prompt from operator", err)
	}
	conn.SetReadDeadline(time.Time{})

	c.isConnected = true
	return nil
}

// Disconnect closes the connection. It is a no-op when not connected.
func (c *Conn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isConnected {
		return nil
	}
	return c.closeLocked()
}

func (c *Conn) closeLocked() error {
	var err error
	if c.conn != nil {
		err = c.conn.Close()
	}
	c.conn = nil
	c.reader = nil
	c.isConnected = false
	return err
}

// Execute sends a command and waits for the prompt, using the configured
// command timeout.
func (c *Conn) Execute(command string) (string, int, error) {
	return c.ExecuteContext(context.Background(), command)
}

// ExecuteContext sends a command and waits for the prompt or for ctx to end.
func (c *Conn) ExecuteContext(ctx context.Context, command string) (string, int, error) {
	if strings.ContainsAny(command, "\r\n") {
		return "", 0, ErrMultiLineCommand
	}

	if c.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.commandTimeout)
		defer cancel()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isConnected {
		return "", 0, ErrNotConnected
	}

	// An ended context leaves the session untouched.
	if err := ctx.Err(); err != nil {
		return "", 0, contextError(ctx, err)
	}

	conn := c.conn
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		// Unblocks the pending read or write.
		conn.SetDeadline(time.Unix(1, 0))
		close(fired)
	})
	defer func() {
		if !stop() && c.isConnected {
			// ctx ended after the answer arrived; the socket stays usable.
			<-fired
			conn.SetDeadline(time.Time{})
		}
	}()

	if _, err := conn.Write([]byte(command + LineTerminator)); err != nil {
		c.closeLocked()
		return "", 0, contextError(ctx, NewConnectionError("failed to send command", err))
	}

	response, err := c.readResponse()
	if err != nil {
		c.closeLocked()
		if errors.Is(err, ErrResponseTooLong) {
			return "", 0, err
		}
		return "", 0, contextError(ctx, NewConnectionError("failed to read response", err))
	}

	return response, StatusCode(response), nil
}

// contextError maps an I/O error caused by ctx ending to ErrTimeout or the
// context's own error.
func contextError(ctx context.Context, err error) error {
	switch ctx.Err() {
	case nil:
		return err
	case context.DeadlineExceeded:
		return ErrTimeout
	default:
		return ctx.Err()
	}
}

// readResponse reads until a prompt line ends the buffered data.
func (c *Conn) readResponse() (string, error) {
	var buf []byte
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\r' {
			continue
		}
		buf = append(buf, b)
		if len(buf) > MaxResponseLength {
			return "", ErrResponseTooLong
		}
		if c.reader.Buffered() == 0 && endsWithPrompt(buf) {
			return string(buf), nil
		}
	}
}

// endsWithPrompt reports whether the last line of buf is a prompt, optionally
// followed by blanks.
func endsWithPrompt(buf []byte) bool {
	end := len(buf)
	for end > 0 && (buf[end-1] == ' ' || buf[end-1] == '\t') {
		end--
	}
	if end == 0 || buf[end-1] != Prompt[0] {
		return false
	}
	return end == 1 || buf[end-2] == '\n'
}
