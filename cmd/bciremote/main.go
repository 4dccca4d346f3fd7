// =============================================================================
// main.go - bciremote Entry Point
// =============================================================================
//
// bciremote connects to a BCI2000 Operator over its telnet interface and
// drives it: identity parameters, module startup, parameter files, start and
// stop. Commands given on the command line are executed one by one; without
// any, an interactive shell runs.
//
// Configuration comes from a YAML/JSONC file (--config or BCIREMOTE_CONFIG)
// and is overridden by flags.
//
// =============================================================================

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Tendocat/bci2000remote/config"
	"github.com/Tendocat/bci2000remote/operatorprotocol"
	"github.com/Tendocat/bci2000remote/remote"
)

const (
	// version is the current version of bciremote.
	version = "0.3.0"

	// appName is the application name.
	appName = "bciremote"

	// exitInterrupted is the exit code after SIGINT or SIGTERM.
	exitInterrupted = 130
)

func fullTitle() string {
	return fmt.Sprintf("%s v%s", appName, version)
}

// options holds the parsed command line. Flags left unset do not override
// the configuration file; the FlagSet's Changed method tells them apart.
type options struct {
	flags *pflag.FlagSet

	configPath   string
	address      string
	operatorPath string
	hide         bool

	subject string
	session string
	run     string
	dataDir string

	startup     bool
	load        []string
	loadRemote  []string
	start       bool
	keepRunning bool
	keepConn    bool

	verbose     bool
	showHelp    bool
	showVersion bool

	// commands are the positional arguments, each sent as one command.
	commands []string
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)

	fs.StringVarP(&opts.configPath, "config", "c", "", "configuration file (YAML or JSONC); defaults to $"+config.EnvConfigPath)
	fs.StringVarP(&opts.address, "address", "a", "", "operator telnet address (default "+operatorprotocol.DefaultAddress+")")
	fs.StringVar(&opts.operatorPath, "operator", "", "operator executable to launch when nothing listens on the address")
	fs.BoolVar(&opts.hide, "hide", false, "launch the operator without its main window")

	fs.StringVar(&opts.subject, "subject", "", "subject identifier (SubjectName)")
	fs.StringVar(&opts.session, "session", "", "session identifier (SubjectSession)")
	fs.StringVar(&opts.run, "run", "", "run identifier (SubjectRun)")
	fs.StringVar(&opts.dataDir, "data-dir", "", "data directory (DataDirectory)")

	fs.BoolVar(&opts.startup, "startup", false, "start the configured modules")
	fs.StringArrayVar(&opts.load, "load", nil, "load a local parameter file (repeatable)")
	fs.StringArrayVar(&opts.loadRemote, "load-remote", nil, "have the operator load a parameter file (repeatable)")
	fs.BoolVar(&opts.start, "start", false, "start the system after loading parameters")
	fs.BoolVar(&opts.keepRunning, "keep-running", false, "do not stop the system on exit")
	fs.BoolVar(&opts.keepConn, "keep-connected", false, "do not disconnect on exit")

	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log every command")
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "show this help")
	fs.BoolVar(&opts.showVersion, "version", false, "show version")
	return fs
}

func parseArguments(args []string) (*options, error) {
	opts := &options{}
	opts.flags = newFlagSet(opts)
	if err := opts.flags.Parse(args); err != nil {
		return nil, err
	}
	opts.commands = opts.flags.Args()
	return opts, nil
}

// applyFlags overrides configuration values with flags that were given.
func applyFlags(cfg *config.Config, opts *options) {
	changed := opts.flags.Changed
	if changed("address") {
		cfg.Operator.Address = opts.address
	}
	if changed("operator") {
		cfg.Operator.Executable = opts.operatorPath
	}
	if changed("hide") {
		cfg.Operator.Hide = opts.hide
	}
	if changed("subject") {
		cfg.Identity.Subject = opts.subject
	}
	if changed("session") {
		cfg.Identity.Session = opts.session
	}
	if changed("run") {
		cfg.Identity.Run = opts.run
	}
	if changed("data-dir") {
		cfg.Identity.DataDirectory = opts.dataDir
	}
	if opts.keepRunning {
		stop := false
		cfg.Lifecycle.Stop = &stop
	}
	if opts.keepConn {
		disconnect := false
		cfg.Lifecycle.Disconnect = &disconnect
	}
	cfg.ParameterFiles = append(cfg.ParameterFiles, opts.load...)
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `USAGE: %s [options] [command ...]

Connects to a BCI2000 Operator and executes each command argument in turn.
Without command arguments an interactive shell is started.

OPTIONS:
%s
EXAMPLES:
  %s --subject S01 --session 001 --startup --load calib.prm --start
  %s 'get system state'
  %s --config experiment.yaml
`, appName, fs.FlagUsages(), appName, appName, appName)
}

func printError(message string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+message))
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArguments(args)
	if err != nil {
		printError(err.Error())
		printUsage(os.Stderr, newFlagSet(&options{}))
		return 2
	}
	if opts.showHelp {
		printUsage(os.Stdout, opts.flags)
		return 0
	}
	if opts.showVersion {
		fmt.Println(fullTitle())
		return 0
	}

	cfg, err := config.Load(config.Path(opts.configPath))
	if err != nil {
		printError(err.Error())
		return 1
	}
	applyFlags(cfg, opts)
	logger := newLogger(opts.verbose)

	// The first SIGINT or SIGTERM cancels ctx, which aborts the command in
	// flight and unwinds to the deferred teardown. A second one ends the
	// process.
	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	context.AfterFunc(ctx, stopSignals)

	address := operatorprotocol.NormalizeAddress(cfg.Operator.Address)
	var launched *operatorProcess
	if cfg.Operator.Executable != "" && !operatorListening(address) {
		fmt.Printf("No operator on %s. Launching %s...\n", address, cfg.Operator.Executable)
		launched, err = launchOperator(ctx, cfg.Operator.Executable, address, cfg.Operator.Hide, cfg.Operator.LaunchTimeout)
		if err != nil {
			return failed(ctx, fmt.Sprintf("Failed to start operator: %v", err))
		}
		logger.Info("operator launched", "pid", launched.Pid(), "address", address)
	}

	conn := operatorprotocol.NewConn(address,
		operatorprotocol.WithConnectTimeout(cfg.Operator.ConnectTimeout),
		operatorprotocol.WithCommandTimeout(cfg.Operator.CommandTimeout),
	)
	client := remote.New(conn,
		remote.WithContext(ctx),
		remote.WithLogger(logger),
		remote.WithStopOnTeardown(cfg.Lifecycle.StopOnTeardown()),
		remote.WithDisconnectOnTeardown(cfg.Lifecycle.DisconnectOnTeardown()),
	)
	client.SetSubjectID(cfg.Identity.Subject)
	client.SetSessionID(cfg.Identity.Session)
	client.SetRunID(cfg.Identity.Run)
	client.SetDataDirectory(cfg.Identity.DataDirectory)

	if err := client.ConnectWithCommands(cfg.InitCommands); err != nil {
		// A launched Operator does not outlive a failed connect.
		if launched != nil {
			launched.Stop()
		}
		return failed(ctx, fmt.Sprintf("Failed to connect to operator: %v", err))
	}

	defer func() {
		client.Close()
		if launched != nil && cfg.Lifecycle.StopOnTeardown() {
			launched.Stop()
		}
	}()

	code := prepare(ctx, client, cfg, opts, os.Stdout)
	if code == 0 {
		if len(opts.commands) > 0 {
			code = executeCommands(ctx, client, opts.commands, os.Stdout)
		} else {
			editor := NewLineEditor()
			defer editor.Close()
			if editor.IsInteractive() {
				fmt.Printf("%s connected to %s\nType '.help' for available commands.\n", fullTitle(), address)
			}
			runShell(ctx, client, editor, os.Stdout)
		}
	}

	if ctx.Err() != nil {
		fmt.Println()
		return exitInterrupted
	}
	return code
}

// prepare runs the startup steps requested by flags and configuration:
// module startup, parameter loading and starting the system. It stops
// quietly once ctx has ended.
func prepare(ctx context.Context, client *remote.Remote, cfg *config.Config, opts *options, out io.Writer) int {
	if opts.startup {
		if err := client.StartupModules(cfg.Modules); err != nil {
			return failed(ctx, client.Result())
		}
		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Started %d module(s)", len(cfg.Modules))))
	}

	for _, path := range cfg.ParameterFiles {
		if err := client.LoadParametersLocal(path); err != nil {
			return failed(ctx, client.Result())
		}
		if ctx.Err() != nil {
			return exitInterrupted
		}
		if client.Result() != "" {
			fmt.Fprintln(out, warnStyle.Render(path+": "+client.Result()))
		}
	}
	for _, path := range opts.loadRemote {
		if err := client.LoadParametersRemote(path); err != nil {
			return failed(ctx, fmt.Sprintf("%s: %s", path, failureText(client, err)))
		}
	}

	if opts.start {
		if err := client.Start(); err != nil {
			return failed(ctx, failureText(client, err))
		}
		fmt.Fprintln(out, infoStyle.Render("System started"))
	}
	return 0
}

// failed reports a failed step and returns the exit code. After an
// interrupt the step failed because it was cancelled, so nothing is printed.
func failed(ctx context.Context, message string) int {
	if ctx.Err() != nil {
		return exitInterrupted
	}
	printError(message)
	return 1
}

// executeCommands sends each command and prints the Operator's answer. The
// exit code is 1 if any command failed.
func executeCommands(ctx context.Context, client *remote.Remote, commands []string, out io.Writer) int {
	code := 0
	for _, cmd := range commands {
		err := client.SimpleCommand(cmd)
		if ctx.Err() != nil {
			return exitInterrupted
		}
		if text := operatorprotocol.StripPrompt(client.Response()); text != "" {
			fmt.Fprintln(out, text)
		}
		if err != nil {
			printError(failureText(client, err))
			code = 1
		}
	}
	return code
}
