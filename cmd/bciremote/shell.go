// =============================================================================
// shell.go - Interactive Shell
// =============================================================================
//
// The shell reads one line at a time. Lines starting with a dot are local
// commands mapped onto the remote client (.start, .set, .load, ...). Every
// other line is sent to the Operator unchanged as a simple command and its
// answer printed.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Tendocat/bci2000remote/operatorprotocol"
	"github.com/Tendocat/bci2000remote/remote"
)

// shellPrompt is shown before each line.
const shellPrompt = "bci> "

// runShell runs the read-dispatch loop until .quit, end of input or the end
// of ctx. A pending read does not hold up the return after ctx ends.
func runShell(ctx context.Context, client *remote.Remote, in lineReader, out io.Writer) {
	for {
		line, err := readLine(ctx, in)
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				shellError(out, err.Error())
			}
			fmt.Fprintln(out)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := dispatchLine(client, line, out); quit || ctx.Err() != nil {
			return
		}
	}
}

// readLine reads one line from in, or returns ctx's error first.
func readLine(ctx context.Context, in lineReader) (string, error) {
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := in.GetLine(shellPrompt)
		done <- result{line, err}
	}()

	select {
	case r := <-done:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// dispatchLine handles one shell line. Returns true when the shell should
// exit.
func dispatchLine(client *remote.Remote, line string, out io.Writer) bool {
	if !strings.HasPrefix(line, ".") {
		err := client.SimpleCommand(line)
		printResponse(out, client.Response())
		if err != nil {
			shellError(out, failureText(client, err))
		}
		return false
	}

	name, rest := splitCommand(line[1:])
	switch name {
	case "quit", "exit":
		return true

	case "help":
		printHelp(out, rest)

	case "start":
		report(out, client, client.Start(), "System started")

	case "stop":
		report(out, client, client.Stop(), "System stopped")

	case "config":
		client.SetConfig()
		if result := client.Result(); result != "" {
			fmt.Fprintln(out, warnStyle.Render(result))
		} else {
			fmt.Fprintln(out, infoStyle.Render("Configuration applied"))
		}

	case "state":
		state, err := client.GetSystemState()
		if err != nil {
			shellError(out, failureText(client, err))
			break
		}
		printResponse(out, state)

	case "wait":
		if rest == "" {
			shellError(out, "Usage: .wait <state>[|<state>...]")
			break
		}
		report(out, client, client.WaitForSystemState(rest), "")

	case "get":
		if rest == "" {
			shellError(out, "Usage: .get <parameter>")
			break
		}
		value, err := client.GetParameter(rest)
		if err != nil {
			shellError(out, failureText(client, err))
			break
		}
		printResponse(out, value)

	case "set":
		param, value := splitWord(rest)
		if param == "" {
			shellError(out, "Usage: .set <parameter> <value>")
			break
		}
		report(out, client, client.SetParameter(param, unquote(value)), "")

	case "getstate":
		if rest == "" {
			shellError(out, "Usage: .getstate <state>")
			break
		}
		value, err := client.GetStateVariable(rest)
		if err != nil {
			shellError(out, failureText(client, err))
			break
		}
		fmt.Fprintln(out, strconv.FormatFloat(value, 'g', -1, 64))

	case "setstate":
		state, text := splitWord(rest)
		value, err := strconv.ParseFloat(text, 64)
		if state == "" || err != nil {
			shellError(out, "Usage: .setstate <state> <number>")
			break
		}
		report(out, client, client.SetStateVariable(state, value), "")

	case "load":
		if rest == "" {
			shellError(out, "Usage: .load <file>")
			break
		}
		if err := client.LoadParametersLocal(unquote(rest)); err != nil {
			shellError(out, client.Result())
			break
		}
		if result := client.Result(); result != "" {
			fmt.Fprintln(out, warnStyle.Render(result))
		} else {
			fmt.Fprintln(out, infoStyle.Render("Parameters loaded"))
		}

	case "loadremote":
		if rest == "" {
			shellError(out, "Usage: .loadremote <file>")
			break
		}
		report(out, client, client.LoadParametersRemote(unquote(rest)), "Parameters loaded")

	case "title":
		if rest == "" {
			shellError(out, "Usage: .title <text>")
			break
		}
		report(out, client, client.SetTitle(unquote(rest)), "")

	case "show", "hide":
		report(out, client, client.ShowWindow(name == "show"), "")

	case "subject", "session", "run", "datadir":
		identity(out, client, name, unquote(rest))

	case "result":
		if result := client.Result(); result != "" {
			fmt.Fprintln(out, result)
		}

	default:
		shellError(out, fmt.Sprintf("Unknown command '.%s'. Type .help to see available commands.", name))
	}
	return false
}

// identity shows or sets one of the identity values. Setting while
// connected also pushes the parameter to the Operator.
func identity(out io.Writer, client *remote.Remote, name, value string) {
	type accessor struct {
		get func() string
		set func(string) error
	}
	accessors := map[string]accessor{
		"subject": {client.SubjectID, client.SetSubjectID},
		"session": {client.SessionID, client.SetSessionID},
		"run":     {client.RunID, client.SetRunID},
		"datadir": {client.DataDirectory, client.SetDataDirectory},
	}
	a := accessors[name]

	if value == "" {
		fmt.Fprintln(out, a.get())
		return
	}
	report(out, client, a.set(value), "")
}

// report prints the outcome of a client call: the success message, or the
// failure text.
func report(out io.Writer, client *remote.Remote, err error, success string) {
	if err != nil {
		shellError(out, failureText(client, err))
		return
	}
	if success != "" {
		fmt.Fprintln(out, infoStyle.Render(success))
	}
}

// failureText describes a failed call. A rejected command is described by
// the Operator's answer; other failures set the client's result text.
func failureText(client *remote.Remote, err error) string {
	if errors.Is(err, remote.ErrCommandFailed) {
		if response := operatorprotocol.StripPrompt(client.Response()); response != "" {
			return response
		}
		return err.Error()
	}
	if result := client.Result(); result != "" {
		return result
	}
	return err.Error()
}

// printResponse prints an Operator answer without its prompt.
func printResponse(out io.Writer, response string) {
	if text := operatorprotocol.StripPrompt(response); text != "" {
		fmt.Fprintln(out, text)
	}
}

func shellError(out io.Writer, message string) {
	fmt.Fprintln(out, errorStyle.Render("Error: "+message))
}

// splitCommand splits a dot-command into its lowercased name and the
// trimmed remainder.
func splitCommand(s string) (string, string) {
	name, rest := splitWord(s)
	return strings.ToLower(name), rest
}

// splitWord splits off the first whitespace-delimited word.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// unquote removes one level of double quotes, if present.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}
