package operatorprotocol

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
)

// mockOperator is a minimal TCP stand-in for the Operator's telnet
// interface. It greets every session with a prompt, answers each command
// line through handler and appends the prompt to every answer.
type mockOperator struct {
	listener net.Listener

	handler func(cmd string) string

	mu          sync.Mutex
	connections []net.Conn
	received    []string

	wg sync.WaitGroup
}

// startMockOperator listens on an ephemeral localhost port. A nil handler
// uses defaultOperatorHandler.
func startMockOperator(t *testing.T, handler func(cmd string) string) *mockOperator {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create mock operator listener: %v", err)
	}

	if handler == nil {
		handler = defaultOperatorHandler
	}

	mo := &mockOperator{
		listener: listener,
		handler:  handler,
	}

	mo.wg.Add(1)
	go mo.acceptLoop()

	t.Cleanup(mo.stop)

	return mo
}

func (mo *mockOperator) address() string {
	return mo.listener.Addr().String()
}

func (mo *mockOperator) commands() []string {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	return append([]string(nil), mo.received...)
}

func (mo *mockOperator) acceptLoop() {
	defer mo.wg.Done()

	for {
		conn, err := mo.listener.Accept()
		if err != nil {
			return
		}

		mo.mu.Lock()
		mo.connections = append(mo.connections, conn)
		mo.mu.Unlock()

		mo.wg.Add(1)
		go mo.handleConnection(conn)
	}
}

func (mo *mockOperator) handleConnection(conn net.Conn) {
	defer mo.wg.Done()

	fmt.Fprint(conn, "> ")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := strings.TrimRight(scanner.Text(), "\r")

		mo.mu.Lock()
		mo.received = append(mo.received, cmd)
		mo.mu.Unlock()

		response := mo.handler(cmd)
		if response == "" {
			fmt.Fprint(conn, "> ")
		} else {
			fmt.Fprintf(conn, "%s\r\n> ", strings.ReplaceAll(response, "\n", "\r\n"))
		}
	}
}

func (mo *mockOperator) stop() {
	mo.listener.Close()

	mo.mu.Lock()
	for _, conn := range mo.connections {
		conn.Close()
	}
	mo.connections = nil
	mo.mu.Unlock()

	mo.wg.Wait()
}

func defaultOperatorHandler(cmd string) string {
	switch {
	case cmd == "get system state":
		return "Resting"
	case strings.HasPrefix(cmd, "is parameter"):
		return "true"
	case strings.HasPrefix(cmd, "get state"):
		return "3"
	default:
		return ""
	}
}
