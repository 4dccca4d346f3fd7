package remote

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Tendocat/bci2000remote/operatorprotocol"
)

// SetParameter sets a parameter's value.
func (r *Remote) SetParameter(name, value string) error {
	return r.SimpleCommand(operatorprotocol.SetParameterCommand(name, value))
}

// GetParameter returns the Operator's raw answer for a parameter's value.
// The name is checked with "is parameter" first; an unknown name fails with
// ErrInvalidParameter without querying the value.
func (r *Remote) GetParameter(name string) (string, error) {
	status, err := r.Execute(operatorprotocol.IsParameterCommand(name))
	if err != nil {
		return "", err
	}
	if status != 1 {
		r.result = name + " is not a valid parameter name"
		return "", fmt.Errorf("%w: %s", ErrInvalidParameter, name)
	}
	if err := r.SimpleCommand(operatorprotocol.GetParameterCommand(name)); err != nil {
		return "", err
	}
	return r.response, nil
}

// AddStateVariable adds a state variable with the given bit width and
// initial value.
func (r *Remote) AddStateVariable(name string, bitWidth int, initialValue float64) error {
	return r.SimpleCommand(operatorprotocol.AddStateCommand(name, bitWidth, initialValue))
}

// SetStateVariable sets a state variable's value.
func (r *Remote) SetStateVariable(name string, value float64) error {
	return r.SimpleCommand(operatorprotocol.SetStateCommand(name, value))
}

// GetStateVariable returns a state variable's value. Text that is not a
// number fails with ErrInvalidValue.
func (r *Remote) GetStateVariable(name string) (float64, error) {
	if err := r.SimpleCommand(operatorprotocol.GetStateCommand(name)); err != nil {
		return 0, err
	}
	text := operatorprotocol.StripPrompt(r.response)
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		r.result = fmt.Sprintf("Could not parse value of state %s: %q", name, text)
		return 0, fmt.Errorf("%w: state %s: %q", ErrInvalidValue, name, text)
	}
	return value, nil
}

// LoadParametersRemote asks the Operator to load a parameter file from its
// own file system.
func (r *Remote) LoadParametersRemote(path string) error {
	return r.SimpleCommand(operatorprotocol.LoadParametersCommand(path))
}

// LoadParametersLocal reads a parameter file on this machine and sends its
// lines to the Operator. Only a failure to open the file is returned as an
// error; rejected lines are counted in Result.
func (r *Remote) LoadParametersLocal(path string) error {
	f, err := os.Open(path)
	if err != nil {
		r.result = fmt.Sprintf("Could not open file %s: %v", path, err)
		return err
	}
	defer f.Close()
	r.LoadParameters(f)
	return nil
}

// LoadParameters sends every line from src to the Operator in two passes:
// first as "add parameter" commands, then as "set parameter" commands. Both
// passes read from src in sequence, so the second pass only sees lines if
// src yields more data after the first pass hit EOF. A plain file or
// buffer is exhausted by the first pass.
//
// Lines are escaped with operatorprotocol.EscapeLine. A pass with rejected
// lines records their count in Result; the set pass overwrites the add
// pass's message. Result is cleared first.
func (r *Remote) LoadParameters(src io.Reader) {
	r.result = ""
	reader := bufio.NewReader(src)

	if failed := r.parameterPass(reader, operatorprotocol.AddParameterLineCommand); failed > 0 {
		r.result = fmt.Sprintf("%d parameter(s) could not be added", failed)
	}
	if failed := r.parameterPass(reader, operatorprotocol.SetParameterLineCommand); failed > 0 {
		r.result = fmt.Sprintf("%d parameter(s) could not be set", failed)
	}
}

func (r *Remote) parameterPass(reader *bufio.Reader, command func(string) string) int {
	failed := 0
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), operatorprotocol.MaxResponseLength)
	for scanner.Scan() {
		if r.ctx.Err() != nil {
			break
		}
		if err := r.SimpleCommand(command(scanner.Text())); err != nil {
			failed++
		}
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warn("parameter source read failed", "error", err)
	}
	return failed
}
