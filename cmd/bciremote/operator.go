// =============================================================================
// operator.go - Operator Discovery and Launch
// =============================================================================
//
// When an operator executable is configured and nothing listens on the
// telnet address, bciremote starts the Operator itself:
//
//	Operator --Telnet <address> --StartupIdle [--Hide]
//
// and then polls the address until the telnet port accepts connections.
//
// A bare executable name is looked up next to the bciremote binary, then in
// PATH. A launched Operator is sent SIGTERM on exit unless the system is
// configured to keep running, and always when bciremote gives up before a
// session is established.
//
// =============================================================================

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

const (
	// operatorPollInterval is how often the telnet port is checked while a
	// launched Operator starts up.
	operatorPollInterval = 100 * time.Millisecond

	// operatorDialTimeout bounds a single check of the port.
	operatorDialTimeout = 250 * time.Millisecond

	// operatorExitTimeout bounds the wait for a launched Operator to exit
	// after SIGTERM.
	operatorExitTimeout = 3 * time.Second
)

// operatorProcess is an Operator started by bciremote.
type operatorProcess struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

// Pid returns the process ID.
func (p *operatorProcess) Pid() int {
	return p.cmd.Process.Pid
}

// Stop sends SIGTERM and waits until the process has exited or
// operatorExitTimeout elapses. It reports whether the process exited.
func (p *operatorProcess) Stop() bool {
	p.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-p.exited:
		return true
	case <-time.After(operatorExitTimeout):
		return false
	}
}

// launchOperator starts the Operator and waits for its telnet port. When the
// port does not open in time, or ctx ends first, the process is stopped
// again and an error is returned.
func launchOperator(ctx context.Context, executable, address string, hide bool, timeout time.Duration) (*operatorProcess, error) {
	exePath, err := findOperatorExecutable(executable)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exePath, operatorArgs(address, hide)...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", exePath, err)
	}
	p := &operatorProcess{cmd: cmd, exited: make(chan struct{})}
	go func() {
		cmd.Wait()
		close(p.exited)
	}()

	if err := waitForOperator(ctx, address, timeout); err != nil {
		p.Stop()
		return nil, fmt.Errorf("%s started (PID: %d) but %w", filepath.Base(exePath), p.Pid(), err)
	}
	return p, nil
}

// operatorArgs builds the Operator's command line.
func operatorArgs(address string, hide bool) []string {
	args := []string{"--Telnet", address, "--StartupIdle"}
	if hide {
		args = append(args, "--Hide")
	}
	return args
}

// findOperatorExecutable resolves the executable to a full path. Paths
// containing a separator are used as given.
func findOperatorExecutable(name string) (string, error) {
	if filepath.Base(name) != name {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("%s is not an executable file", name)
	}

	if selfPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(selfPath), name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("%s not found next to %s or in PATH", name, appName)
}

// operatorListening reports whether something accepts connections on
// address.
func operatorListening(address string) bool {
	conn, err := net.DialTimeout("tcp", address, operatorDialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// waitForOperator polls address until it accepts connections, timeout
// elapses or ctx ends.
func waitForOperator(ctx context.Context, address string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if operatorListening(address) {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("timeout waiting for telnet port %s", address)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("interrupted waiting for telnet port %s: %w", address, ctx.Err())
		case <-time.After(operatorPollInterval):
		}
	}
}

// isExecutable checks if a file exists and is executable.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Mode().Perm()&0111 != 0
}

// homeDir returns the current user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
