package remote

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetParameter(t *testing.T) {
	conn := newFakeConn()
	r := connectedRemote(t, conn)

	require.NoError(t, r.SetParameter("SamplingRate", "256Hz"))
	assert.Equal(t, []string{`set parameter "SamplingRate" "256Hz"`}, conn.sent)
}

func TestGetParameter(t *testing.T) {
	conn := newFakeConn().
		on(`is parameter "SamplingRate"`, "true\n> ", 1).
		on(`get parameter "SamplingRate"`, "256Hz\n> ", 0)
	r := connectedRemote(t, conn)

	value, err := r.GetParameter("SamplingRate")
	require.NoError(t, err)
	assert.Equal(t, "256Hz\n> ", value)
}

func TestGetParameterInvalidName(t *testing.T) {
	conn := newFakeConn().on(`is parameter "X"`, "false\n> ", 0)
	r := connectedRemote(t, conn)

	_, err := r.GetParameter("X")
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Contains(t, r.Result(), "X is not a valid parameter name")
	assert.Equal(t, 0, conn.count(`get parameter "X"`))
}

func TestStateVariableCommands(t *testing.T) {
	conn := newFakeConn()
	r := connectedRemote(t, conn)

	require.NoError(t, r.AddStateVariable("Trigger", 8, 0))
	require.NoError(t, r.SetStateVariable("Trigger", 12))
	require.NoError(t, r.SetStateVariable("Gain", 0.5))

	assert.Equal(t, []string{
		`add state "Trigger" 8 0`,
		`set state "Trigger" 12`,
		`set state "Gain" 0.5`,
	}, conn.sent)
}

func TestGetStateVariable(t *testing.T) {
	conn := newFakeConn().
		on(`get state "Pi"`, "3.14>", 0).
		on(`get state "Trigger"`, "2\n> ", 2)
	r := connectedRemote(t, conn)

	value, err := r.GetStateVariable("Pi")
	require.NoError(t, err)
	assert.Equal(t, 3.14, value)

	value, err = r.GetStateVariable("Trigger")
	require.NoError(t, err)
	assert.Equal(t, 2.0, value)
}

func TestGetStateVariableNotNumeric(t *testing.T) {
	conn := newFakeConn().on(`get state "Bad"`, "abc>", 0)
	r := connectedRemote(t, conn)

	value, err := r.GetStateVariable("Bad")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Zero(t, value)
	assert.Contains(t, r.Result(), "abc")
}

func TestGetStateVariableRejected(t *testing.T) {
	conn := newFakeConn().on(`get state "Missing"`, "State Missing does not exist", 0)
	r := connectedRemote(t, conn)

	_, err := r.GetStateVariable("Missing")
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestLoadParametersRemote(t *testing.T) {
	conn := newFakeConn()
	r := connectedRemote(t, conn)

	require.NoError(t, r.LoadParametersRemote("../parms/fragments/amplifiers/SignalGenerator.prm"))
	assert.Equal(t, []string{`load parameters "../parms/fragments/amplifiers/SignalGenerator.prm"`}, conn.sent)
}

func writeParameterFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.prm")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadParametersLocalCountsFailures(t *testing.T) {
	path := writeParameterFile(t, "Bad line\nSource int Good= 1 // \"ok\"\n")
	conn := newFakeConn().on("add parameter Bad line", "Syntax error", 0)
	r := connectedRemote(t, conn)

	require.NoError(t, r.LoadParametersLocal(path))

	assert.Equal(t, "1 parameter(s) could not be added", r.Result())
	assert.Equal(t, []string{
		"add parameter Bad line",
		"add parameter Source int Good= 1 // %22ok%22",
	}, conn.sent, "the set pass reads from the exhausted file and sends nothing")
}

func TestLoadParametersLocalMissingFile(t *testing.T) {
	conn := newFakeConn()
	r := connectedRemote(t, conn)

	err := r.LoadParametersLocal(filepath.Join(t.TempDir(), "missing.prm"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, r.Result(), "Could not open file")
	assert.Contains(t, r.Result(), "missing.prm")
	assert.Empty(t, conn.sent)
}

// rewindingReader serves its content once per pass: after returning EOF it
// starts over, like a source that is re-opened between passes.
type rewindingReader struct {
	content string
	reader  io.Reader
}

func (rr *rewindingReader) Read(p []byte) (int, error) {
	if rr.reader == nil {
		rr.reader = strings.NewReader(rr.content)
	}
	n, err := rr.reader.Read(p)
	if err == io.EOF {
		rr.reader = nil
	}
	return n, err
}

func TestLoadParametersSecondPass(t *testing.T) {
	conn := newFakeConn().
		on("set parameter A", "rejected", 0).
		on("set parameter B", "rejected", 0).
		on("add parameter B", "rejected", 0)
	r := connectedRemote(t, conn)

	r.LoadParameters(&rewindingReader{content: "A\nB\n"})

	assert.Equal(t, []string{
		"add parameter A",
		"add parameter B",
		"set parameter A",
		"set parameter B",
	}, conn.sent)
	assert.Equal(t, "2 parameter(s) could not be set", r.Result())
}
