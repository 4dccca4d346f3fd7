package remote

import (
	"context"
	"errors"
	"strings"
)

// fakeConn is a scripted operatorprotocol.Connection. Responses are looked
// up by exact command first, then by the longest matching prefix; commands
// with no scripted reply get a bare prompt. Every executed command is
// recorded.
type fakeConn struct {
	connected  bool
	connectErr error

	replies  map[string]fakeReply
	sent     []string
	disconns int
}

type fakeReply struct {
	response string
	status   int
	err      error
}

func newFakeConn() *fakeConn {
	return &fakeConn{replies: make(map[string]fakeReply)}
}

func (f *fakeConn) on(command, response string, status int) *fakeConn {
	f.replies[command] = fakeReply{response: response, status: status}
	return f
}

func (f *fakeConn) onError(command string, err error) *fakeConn {
	f.replies[command] = fakeReply{err: err}
	return f
}

func (f *fakeConn) Connect() error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeConn) Disconnect() error {
	f.disconns++
	f.connected = false
	return nil
}

func (f *fakeConn) IsConnected() bool { return f.connected }

func (f *fakeConn) Execute(command string) (string, int, error) {
	if !f.connected {
		return "", 0, errors.New("not connected")
	}
	f.sent = append(f.sent, command)

	if reply, ok := f.replies[command]; ok {
		return reply.response, reply.status, reply.err
	}
	best := ""
	for prefix := range f.replies {
		if strings.HasPrefix(command, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		reply := f.replies[best]
		return reply.response, reply.status, reply.err
	}
	return "> ", 0, nil
}

func (f *fakeConn) ExecuteContext(ctx context.Context, command string) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	return f.Execute(command)
}

// count returns how many times command was sent.
func (f *fakeConn) count(command string) int {
	n := 0
	for _, c := range f.sent {
		if c == command {
			n++
		}
	}
	return n
}
