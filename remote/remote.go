// Package remote implements a control client for the BCI2000 Operator.
//
// A Remote translates high-level operations (module startup, configuration,
// start, stop, parameter and state access) into the Operator's text
// commands and sends them through an operatorprotocol.Connection. Every
// operation records two strings on the client: Response, the raw text of
// the last command's answer, and Result, the last diagnostic produced by
// the client itself. Read them right after a failing call; the next
// operation overwrites them.
//
// A Remote is not safe for concurrent use, with one exception: Close may be
// called from another goroutine while a command is in flight. It cancels
// that command, which closes the session, and then tears down. Depending
// on its teardown flags it stops a running system and disconnects.
package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Tendocat/bci2000remote/operatorprotocol"
)

// Operator parameter names mirrored from the identity fields.
const (
	ParamSubjectName    = "SubjectName"
	ParamSubjectSession = "SubjectSession"
	ParamSubjectRun     = "SubjectRun"
	ParamDataDirectory  = "DataDirectory"
)

// TeardownTimeout bounds the commands Close sends.
const TeardownTimeout = 5 * time.Second

// Option configures a Remote.
type Option func(*Remote)

// WithLogger sets the logger used for command tracing. The default discards
// all output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Remote) { r.logger = logger }
}

// WithContext bounds every command by ctx. When ctx ends, a command in
// flight returns and later commands fail. Close still tears down.
func WithContext(ctx context.Context) Option {
	return func(r *Remote) { r.ctx = ctx }
}

// WithStopOnTeardown controls whether Close stops a running system.
func WithStopOnTeardown(stop bool) Option {
	return func(r *Remote) { r.stopOnTeardown = stop }
}

// WithDisconnectOnTeardown controls whether Close disconnects.
func WithDisconnectOnTeardown(disconnect bool) Option {
	return func(r *Remote) { r.disconnectOnTeardown = disconnect }
}

// Remote is a client for the Operator's command protocol.
type Remote struct {
	conn   operatorprotocol.Connection
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	response string
	result   string

	subjectID     string
	sessionID     string
	runID         string
	dataDirectory string

	stopOnTeardown       bool
	disconnectOnTeardown bool
	closeOnce            sync.Once
}

// New creates a Remote that talks through conn. The connection is not
// opened until Connect is called.
func New(conn operatorprotocol.Connection, opts ...Option) *Remote {
	r := &Remote{
		conn:                 conn,
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:                  context.Background(),
		stopOnTeardown:       true,
		disconnectOnTeardown: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ctx, r.cancel = context.WithCancel(r.ctx)
	return r
}

// Response returns the raw text of the most recent command's answer.
func (r *Remote) Response() string { return r.response }

// Result returns the most recent diagnostic raised by the client.
func (r *Remote) Result() string { return r.result }

// StopOnTeardown reports whether Close stops a running system.
func (r *Remote) StopOnTeardown() bool { return r.stopOnTeardown }

// SetStopOnTeardown sets whether Close stops a running system.
func (r *Remote) SetStopOnTeardown(stop bool) { r.stopOnTeardown = stop }

// DisconnectOnTeardown reports whether Close disconnects.
func (r *Remote) DisconnectOnTeardown() bool { return r.disconnectOnTeardown }

// SetDisconnectOnTeardown sets whether Close disconnects.
func (r *Remote) SetDisconnectOnTeardown(disconnect bool) { r.disconnectOnTeardown = disconnect }

// IsConnected reports whether the underlying connection is open.
func (r *Remote) IsConnected() bool { return r.conn.IsConnected() }

// Connect opens the connection and replays every identity field that has
// been set, in the order subject, session, run, data directory.
func (r *Remote) Connect() error {
	if err := r.conn.Connect(); err != nil {
		r.result = err.Error()
		return err
	}
	r.logger.Info("connected to operator")

	r.SetSubjectID(r.subjectID)
	r.SetSessionID(r.sessionID)
	r.SetRunID(r.runID)
	r.SetDataDirectory(r.dataDirectory)
	return nil
}

// ConnectWithCommands connects and then executes each command in order.
// Individual command failures are ignored; only the connect outcome is
// returned.
func (r *Remote) ConnectWithCommands(commands []string) error {
	if err := r.Connect(); err != nil {
		return err
	}
	for _, cmd := range commands {
		r.SimpleCommand(cmd)
	}
	return nil
}

// Close tears the client down once. A command in flight on another
// goroutine is cancelled first, which leaves the session closed. Then, if
// StopOnTeardown is set and the session is still open, a running system is
// stopped, and if DisconnectOnTeardown is set the session is closed. The
// teardown commands run under their own TeardownTimeout, so they are sent
// even after the WithContext context has ended. Close is best effort and
// always returns nil.
func (r *Remote) Close() error {
	r.closeOnce.Do(func() {
		r.cancel()

		ctx, cancel := context.WithTimeout(context.Background(), TeardownTimeout)
		defer cancel()

		if r.stopOnTeardown && r.conn.IsConnected() {
			r.stopForTeardown(ctx)
		}
		if r.disconnectOnTeardown {
			if err := r.conn.Disconnect(); err != nil {
				r.logger.Warn("disconnect failed", "error", err)
			}
		}
	})
	return nil
}

// stopForTeardown is Stop without touching Response and Result, which may
// still belong to a cancelled call on another goroutine.
func (r *Remote) stopForTeardown(ctx context.Context) {
	state, _, err := r.conn.ExecuteContext(ctx, operatorprotocol.GetSystemStateCommand())
	if err != nil || !strings.Contains(state, operatorprotocol.StateRunning) {
		return
	}
	response, _, err := r.conn.ExecuteContext(ctx, operatorprotocol.StopSystemCommand())
	if err != nil || !operatorprotocol.IsSuccess(response) {
		r.logger.Warn("stop on teardown failed", "response", response, "error", err)
		return
	}
	r.logger.Info("system stopped on teardown")
}

// Execute sends a command and returns the status code reported by the
// connection. The raw answer is stored in Response.
func (r *Remote) Execute(command string) (int, error) {
	response, status, err := r.conn.ExecuteContext(r.ctx, command)
	r.response = response
	if err != nil {
		r.result = err.Error()
		r.logger.Warn("command failed", "command", command, "error", err)
		return status, err
	}
	r.logger.Debug("command executed", "command", command, "status", status, "response", response)
	return status, nil
}

// SimpleCommand executes a command and classifies its answer with
// operatorprotocol.IsSuccess. Blank answers, answers with a non-zero leading
// integer and answers containing the prompt are successes.
func (r *Remote) SimpleCommand(command string) error {
	if _, err := r.Execute(command); err != nil {
		return err
	}
	if !operatorprotocol.IsSuccess(r.response) {
		r.logger.Warn("command rejected", "command", command, "response", r.response)
		return fmt.Errorf("%w: %s", ErrCommandFailed, command)
	}
	return nil
}

// SubjectID returns the subject identifier.
func (r *Remote) SubjectID() string { return r.subjectID }

// SetSubjectID stores the subject identifier and, when connected and
// non-empty, sets the SubjectName parameter.
func (r *Remote) SetSubjectID(id string) error {
	r.subjectID = id
	return r.pushIdentity(ParamSubjectName, id)
}

// SessionID returns the session identifier.
func (r *Remote) SessionID() string { return r.sessionID }

// SetSessionID stores the session identifier and, when connected and
// non-empty, sets the SubjectSession parameter.
func (r *Remote) SetSessionID(id string) error {
	r.sessionID = id
	return r.pushIdentity(ParamSubjectSession, id)
}

// RunID returns the run identifier.
func (r *Remote) RunID() string { return r.runID }

// SetRunID stores the run identifier and, when connected and non-empty,
// sets the SubjectRun parameter.
func (r *Remote) SetRunID(id string) error {
	r.runID = id
	return r.pushIdentity(ParamSubjectRun, id)
}

// DataDirectory returns the data directory.
func (r *Remote) DataDirectory() string { return r.dataDirectory }

// SetDataDirectory stores the data directory and, when connected and
// non-empty, sets the DataDirectory parameter.
func (r *Remote) SetDataDirectory(dir string) error {
	r.dataDirectory = dir
	return r.pushIdentity(ParamDataDirectory, dir)
}

func (r *Remote) pushIdentity(param, value string) error {
	if value == "" || !r.conn.IsConnected() {
		return nil
	}
	return r.SimpleCommand(operatorprotocol.SetNamedParameterCommand(param, value))
}
