package remote

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Tendocat/bci2000remote/operatorprotocol"
)

const localArg = "--local"

// Module names an executable to start during StartupModules together with
// its command-line arguments. A nil Args slice means no arguments besides
// the implicit --local.
type Module struct {
	Name string
	Args []string
}

// NormalizeModuleArgs prepares module arguments for "start executable".
// Whitespace inside each token is removed, empty tokens are dropped, a
// leading "--" is added where missing, and "--local" is appended unless one
// of the tokens already is --local (in any case, optionally with a value).
func NormalizeModuleArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	hasLocal := false
	for _, arg := range args {
		arg = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, arg)
		if arg == "" {
			continue
		}
		if !strings.HasPrefix(arg, "--") {
			arg = "--" + arg
		}
		lower := strings.ToLower(arg)
		if lower == localArg || strings.HasPrefix(lower, localArg+"=") {
			hasLocal = true
		}
		out = append(out, arg)
	}
	if !hasLocal {
		out = append(out, localArg)
	}
	return out
}

// StartupModules restarts the Operator's system, starts each module in
// order and waits for the Connected state.
//
// Every module is started even if an earlier one fails. A module whose
// start command does not report status 1 is listed in Result and the wait
// is skipped.
func (r *Remote) StartupModules(modules []Module) error {
	r.SimpleCommand(operatorprotocol.ShutdownSystemCommand())
	r.SimpleCommand(operatorprotocol.StartupSystemCommand(operatorprotocol.DefaultHost))

	var failures []string
	for _, module := range modules {
		cmd := operatorprotocol.StartExecutableCommand(module.Name, NormalizeModuleArgs(module.Args))
		status, err := r.Execute(cmd)
		if status == 1 && err == nil {
			r.logger.Info("module started", "module", module.Name)
			continue
		}
		line := fmt.Sprintf("%s: status %d", module.Name, status)
		if err != nil {
			line += " (" + err.Error() + ")"
		}
		failures = append(failures, line)
	}

	if len(failures) > 0 {
		r.result = resultModulesFailed + "\n" + strings.Join(failures, "\n")
		r.logger.Error("module startup failed", "failures", failures)
		return fmt.Errorf("%w: %s", ErrModuleStartup, strings.Join(failures, "; "))
	}
	return r.WaitForSystemState(operatorprotocol.StateConnected)
}

// SetConfig pushes the identity fields to the Operator and applies the
// current parameters, waiting for the Resting or Initialization state.
//
// SetConfig has no failure outcome of its own. When the Operator answers
// "set config" with anything but a bare prompt, that answer and the
// messages captured during configuration are stored in Result; callers
// must check Result to detect configuration problems. Result is cleared
// first.
func (r *Remote) SetConfig() {
	r.result = ""
	r.SetSubjectID(r.subjectID)
	r.SetSessionID(r.sessionID)
	r.SetDataDirectory(r.dataDirectory)

	r.SimpleCommand(operatorprotocol.CaptureMessagesCommand("none", "warnings", "errors"))
	err := r.SimpleCommand(operatorprotocol.SetConfigCommand())
	configResponse := r.response
	if err == nil {
		r.WaitForSystemState(operatorprotocol.StateResting + "|" + operatorprotocol.StateInitialization)
	} else {
		r.logger.Warn("set config rejected", "response", configResponse)
	}

	r.SimpleCommand(operatorprotocol.CaptureMessagesCommand())
	// The state query's answer is not used.
	r.SimpleCommand(operatorprotocol.GetSystemStateCommand())
	r.SimpleCommand(operatorprotocol.FlushMessagesCommand())

	trimmed := strings.TrimSpace(configResponse)
	if trimmed != "" && !operatorprotocol.IsBarePrompt(trimmed) {
		r.result = trimmed + "\n" + strings.TrimSpace(r.response)
	}
}

// Start starts the system, applying the configuration first unless the
// system is already Resting or Suspended.
func (r *Remote) Start() error {
	state, _ := r.GetSystemState()
	if strings.Contains(state, operatorprotocol.StateRunning) {
		r.result = resultAlreadyRunning
		return ErrAlreadyRunning
	}
	if !strings.Contains(state, operatorprotocol.StateResting) &&
		!strings.Contains(state, operatorprotocol.StateSuspended) {
		r.SetConfig()
	}
	return r.SimpleCommand(operatorprotocol.StartSystemCommand())
}

// Stop stops a running system.
func (r *Remote) Stop() error {
	state, _ := r.GetSystemState()
	if !strings.Contains(state, operatorprotocol.StateRunning) {
		r.result = resultNotRunning
		return ErrNotRunning
	}
	return r.SimpleCommand(operatorprotocol.StopSystemCommand())
}

// WaitForSystemState blocks until the Operator reports the given state.
// The state may be an alternation such as "Resting|Initialization". No
// timeout is applied here; the connection's own policy decides.
func (r *Remote) WaitForSystemState(state string) error {
	return r.SimpleCommand(operatorprotocol.WaitForCommand(state))
}

// GetSystemState returns the Operator's raw answer to "get system state".
func (r *Remote) GetSystemState() (string, error) {
	err := r.SimpleCommand(operatorprotocol.GetSystemStateCommand())
	return r.response, err
}

// SetTitle sets the title of the Operator's main window.
func (r *Remote) SetTitle(title string) error {
	return r.SimpleCommand(operatorprotocol.SetTitleCommand(title))
}

// ShowWindow shows or hides the Operator's main window.
func (r *Remote) ShowWindow(visible bool) error {
	return r.SimpleCommand(operatorprotocol.WindowCommand(visible))
}
