// =============================================================================
// help.go - Shell Help Text
// =============================================================================
//
//   - ".help"         full command listing
//   - ".help <topic>" detailed help for one command
//
// =============================================================================

package main

import (
	"fmt"
	"io"
	"strings"
)

// printHelp prints the overview, or the detailed text for topic.
func printHelp(out io.Writer, topic string) {
	if topic == "" {
		printHelpOverview(out)
		return
	}

	key := strings.TrimPrefix(strings.ToLower(topic), ".")
	if text, ok := shellHelp[key]; ok {
		fmt.Fprintln(out, text)
		return
	}
	shellError(out, fmt.Sprintf("No help for '%s'. Type .help to see available commands.", topic))
}

func printHelpOverview(out io.Writer) {
	fmt.Fprintln(out, titleStyle.Render("Shell Commands:"))
	fmt.Fprint(out, `  .start              Apply the configuration and start the system
  .stop               Stop a running system
  .config             Apply parameters (set config) and show diagnostics
  .state              Show the system state
  .wait <states>      Wait for one of the given states (Resting|Suspended)
  .get <param>        Show a parameter value
  .set <param> <val>  Set a parameter value
  .getstate <state>   Show a state variable value
  .setstate <s> <n>   Set a state variable value
  .load <file>        Load a local parameter file line by line
  .loadremote <file>  Have the Operator load a parameter file
  .subject [id]       Show or set the subject ID
  .session [id]       Show or set the session ID
  .run [id]           Show or set the run ID
  .datadir [dir]      Show or set the data directory
  .title <text>       Set the Operator window title
  .show / .hide       Show or hide the Operator window
  .result             Show the result text of the last operation
  .help [cmd]         Show help (or help for a specific command)
  .quit               Exit; stops and disconnects unless told otherwise

Any other line is sent to the Operator as a command, e.g.
  get system state
  show window
`)
}

// shellHelp contains detailed help for the dot-commands.
// Keys are command names without the leading dot.
var shellHelp = map[string]string{
	"start": `  .start
    Start the system. If the system is not yet configured, the
    configuration is applied first (see .config). Fails with
    "System is already running" when it is.`,

	"stop": `  .stop
    Stop a running system. Fails with "System is not running" otherwise.`,

	"config": `  .config
    Push subject, session and data directory, then issue "set config"
    with warnings and errors captured. Any captured messages are shown.`,

	"state": `  .state
    Show the Operator's system state: Idle, Startup, Connected,
    Resting, Suspended, ParamsModified, Running, Termination or Busy.`,

	"wait": `  .wait <state>[|<state>...]
    Block until the system reaches one of the given states.
    Example:
      .wait Resting|Suspended`,

	"get": `  .get <param>
    Show a parameter value. Fails if the name is not a parameter.
    Example:
      .get SamplingRate`,

	"set": `  .set <param> <value>
    Set a parameter value. Quote values containing spaces.
    Examples:
      .set SamplingRate 256Hz
      .set SubjectName "S 01"`,

	"getstate": `  .getstate <state>
    Show the numeric value of a state variable.
    Example:
      .getstate Running`,

	"setstate": `  .setstate <state> <number>
    Set a state variable.
    Example:
      .setstate Trigger 1`,

	"load": `  .load <file>
    Read a parameter file on this machine and send it line by line,
    first as "add parameter" and then as "set parameter". Lines the
    Operator rejects are counted and reported.`,

	"loadremote": `  .loadremote <file>
    Have the Operator load a parameter file from its own file system.`,

	"subject": `  .subject [id]
    Show or set the subject ID (SubjectName).`,

	"session": `  .session [id]
    Show or set the session ID (SubjectSession).`,

	"run": `  .run [id]
    Show or set the run ID (SubjectRun).`,

	"datadir": `  .datadir [dir]
    Show or set the data directory (DataDirectory). Relative paths
    are relative to the Operator's working directory.`,

	"title": `  .title <text>
    Set the title of the Operator's main window.
    Example:
      .title "Session 2 calibration"`,

	"show": `  .show
    Show the Operator's main window.`,

	"hide": `  .hide
    Hide the Operator's main window. The Operator keeps running.`,

	"result": `  .result
    Show the result text of the last operation: captured messages,
    module start failures or parameter load counts.`,

	"help": `  .help [command]
    Show help for all commands, or detailed help for one.`,

	"quit": `  .quit
    Exit the shell. The system is stopped and the connection closed
    unless --keep-running or --keep-connected was given.`,
}
