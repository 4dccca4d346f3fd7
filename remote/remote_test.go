package remote

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectedRemote(t *testing.T, conn *fakeConn, opts ...Option) *Remote {
	t.Helper()
	r := New(conn, opts...)
	require.NoError(t, r.Connect())
	conn.sent = nil
	return r
}

func TestSimpleCommandClassification(t *testing.T) {
	tests := []struct {
		response string
		success  bool
	}{
		{"", true},
		{"0", false},
		{"1", true},
		{"garbage", false},
		{"garbage>", true},
		{"-3", true},
	}

	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			conn := newFakeConn().on("show window", tt.response, 0)
			r := connectedRemote(t, conn)

			err := r.SimpleCommand("show window")
			if tt.success {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrCommandFailed)
			}
			assert.Equal(t, tt.response, r.Response())
		})
	}
}

func TestExecuteTransportError(t *testing.T) {
	conn := newFakeConn().onError("get system state", errors.New("connection reset"))
	r := connectedRemote(t, conn)

	_, err := r.GetSystemState()
	require.Error(t, err)
	assert.Equal(t, "connection reset", r.Result())
	assert.Empty(t, r.Response())
}

func TestIdentitySettersWhileDisconnected(t *testing.T) {
	conn := newFakeConn()
	r := New(conn)

	require.NoError(t, r.SetSubjectID("S01"))
	require.NoError(t, r.SetSessionID("002"))
	require.NoError(t, r.SetRunID("03"))
	require.NoError(t, r.SetDataDirectory("../data"))

	assert.Empty(t, conn.sent)
	assert.Equal(t, "S01", r.SubjectID())
	assert.Equal(t, "002", r.SessionID())
	assert.Equal(t, "03", r.RunID())
	assert.Equal(t, "../data", r.DataDirectory())
}

func TestIdentitySettersWhileConnected(t *testing.T) {
	conn := newFakeConn()
	r := connectedRemote(t, conn)

	require.NoError(t, r.SetSubjectID("S01"))
	require.NoError(t, r.SetRunID(""))
	require.NoError(t, r.SetDataDirectory("C:/data dir"))

	assert.Equal(t, []string{
		`set parameter SubjectName "S01"`,
		`set parameter DataDirectory "C:/data dir"`,
	}, conn.sent)
	assert.Equal(t, "", r.RunID())
}

func TestConnectReplaysIdentity(t *testing.T) {
	conn := newFakeConn()
	r := New(conn)
	r.SetDataDirectory("/data")
	r.SetRunID("7")
	r.SetSubjectID("S01")

	require.NoError(t, r.Connect())

	assert.Equal(t, []string{
		`set parameter SubjectName "S01"`,
		`set parameter SubjectRun "7"`,
		`set parameter DataDirectory "/data"`,
	}, conn.sent)
}

func TestConnectFailure(t *testing.T) {
	conn := newFakeConn()
	conn.connectErr = errors.New("connection refused")
	r := New(conn)
	r.SetSubjectID("S01")

	err := r.ConnectWithCommands([]string{"show window"})
	require.Error(t, err)
	assert.Equal(t, "connection refused", r.Result())
	assert.Empty(t, conn.sent)
}

func TestConnectWithCommandsIgnoresFailures(t *testing.T) {
	conn := newFakeConn().on("bad command", "Unknown command", 0)
	r := New(conn)

	err := r.ConnectWithCommands([]string{"bad command", "show window", `set title "Run"`})
	require.NoError(t, err)
	assert.Equal(t, []string{"bad command", "show window", `set title "Run"`}, conn.sent)
}

func TestCloseStopsAndDisconnects(t *testing.T) {
	conn := newFakeConn().on("get system state", "Running\n> ", 0)
	r := connectedRemote(t, conn)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.Equal(t, []string{"get system state", "stop system"}, conn.sent)
	assert.Equal(t, 1, conn.disconns)
	assert.False(t, r.IsConnected())
}

func TestCloseRespectsTeardownFlags(t *testing.T) {
	conn := newFakeConn().on("get system state", "Running\n> ", 0)
	r := connectedRemote(t, conn, WithStopOnTeardown(false))
	r.SetDisconnectOnTeardown(false)

	assert.False(t, r.StopOnTeardown())
	assert.False(t, r.DisconnectOnTeardown())
	require.NoError(t, r.Close())

	assert.Empty(t, conn.sent)
	assert.Equal(t, 0, conn.disconns)
	assert.True(t, r.IsConnected())
}

func TestCloseWhenNotRunning(t *testing.T) {
	conn := newFakeConn().on("get system state", "Resting\n> ", 0)
	r := connectedRemote(t, conn, WithDisconnectOnTeardown(true))

	require.NoError(t, r.Close())

	assert.Equal(t, []string{"get system state"}, conn.sent)
	assert.Equal(t, 1, conn.disconns)
}

func TestTeardownDefaults(t *testing.T) {
	r := New(newFakeConn())
	assert.True(t, r.StopOnTeardown())
	assert.True(t, r.DisconnectOnTeardown())
}
