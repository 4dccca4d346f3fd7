// =============================================================================
// lineeditor.go - Line Editor with Dual-Mode Operation
// =============================================================================
//
// The shell reads its input through a LineEditor. When stdin is a terminal
// it uses ergochat/readline for Emacs keybindings, persistent history and
// Ctrl-R search, and Tab completes dot-commands and help topics. When stdin is piped (a script, or Emacs comint) it falls
// back to a bufio.Scanner and prints the prompt itself.
//
// History lives in ~/.bciremote_history, capped at 500 entries.
//
// =============================================================================

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const (
	// historyFileName is the history file in the user's home directory.
	historyFileName = ".bciremote_history"

	// historySize is the maximum number of history entries to retain.
	historySize = 500
)

// lineReader is what the shell needs from its input.
type lineReader interface {
	GetLine(prompt string) (string, error)
}

// LineEditor wraps line editing with dual-mode operation.
type LineEditor struct {
	// interactive is true when stdin is a TTY and not inside Emacs.
	interactive bool

	// rl is nil in non-interactive mode.
	rl *readline.Instance

	// scanner is nil in interactive mode.
	scanner *bufio.Scanner

	// out receives prompts in non-interactive mode.
	out io.Writer
}

// NewLineEditor creates a LineEditor for stdin, choosing the mode from the
// terminal state.
func NewLineEditor() *LineEditor {
	isInteractive := term.IsTerminal(int(os.Stdin.Fd())) &&
		os.Getenv("INSIDE_EMACS") == ""

	if !isInteractive {
		return newScannerEditor(os.Stdin, os.Stdout)
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            filepath.Join(homeDir(), historyFileName),
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
		AutoComplete:           newCompleter(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return newScannerEditor(os.Stdin, os.Stdout)
	}

	return &LineEditor{
		interactive: true,
		rl:          rl,
	}
}

// newCompleter completes dot-command names, and topic names after .help.
func newCompleter() *readline.PrefixCompleter {
	topics := make([]string, 0, len(shellHelp))
	for topic := range shellHelp {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	helpItems := make([]*readline.PrefixCompleter, 0, len(topics))
	items := make([]*readline.PrefixCompleter, 0, len(topics)+1)
	for _, topic := range topics {
		helpItems = append(helpItems, readline.PcItem(topic))
		if topic != "help" {
			items = append(items, readline.PcItem("."+topic))
		}
	}
	items = append(items, readline.PcItem(".help", helpItems...))
	return readline.NewPrefixCompleter(items...)
}

// newScannerEditor returns a non-interactive editor reading from in.
func newScannerEditor(in io.Reader, out io.Writer) *LineEditor {
	return &LineEditor{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// GetLine reads a line with the given prompt. Returns io.EOF on Ctrl-D,
// Ctrl-C or when piped input is exhausted.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getNonInteractiveLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return "", err
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *LineEditor) getNonInteractiveLine(prompt string) (string, error) {
	fmt.Fprint(le.out, prompt)

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

// Close saves history and releases the terminal. Safe to call twice.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether full line editing is active.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}
