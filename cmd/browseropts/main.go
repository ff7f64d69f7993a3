// browseropts loads a test configuration, resolves the effective settings of
// every browser instance and reports where each headless value came from.
//
// Usage:
//
//	browseropts resolve FILE [--output json|yaml] [--rule EXPR] [--engine expr|cel|js] [--redis URL --project NAME]
//	browseropts explain FILE --instance NAME [--path headless] [--output text|json]
//	browseropts check [FILE --expect NAME=BOOL ...]
//	browseropts schema
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, newLogger(os.Stderr))
	stop()
	if err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.message != "" {
				fmt.Fprintln(os.Stderr, exit.message)
			}
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exitError ends the process with code after output was already written.
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string {
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf("exit status %d", e.code)
}

// ExitCode reports the process exit code.
func (e *exitError) ExitCode() int { return e.code }

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, env *cliEnv) error
}

type cliEnv struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	styles styles
}

func commands() []command {
	return []command{
		{name: "resolve", summary: "print the effective configuration of every instance", run: runResolve},
		{name: "explain", summary: "show which scope supplied a setting of one instance", run: runExplain},
		{name: "check", summary: "verify expected headless values (embedded scenarios by default)", run: runCheck},
		{name: "schema", summary: "print the OpenAPI document of the configuration format", run: runSchema},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, logger *slog.Logger) error {
	env := &cliEnv{
		stdout: stdout,
		stderr: stderr,
		logger: logger.With("component", "cli"),
		styles: newStyles(),
	}
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return nil
	}
	for _, cmd := range commands() {
		if cmd.name == args[0] {
			return cmd.run(ctx, args[1:], env)
		}
	}
	printUsage(stderr)
	return &exitError{code: 2, message: fmt.Sprintf("unknown command %q", args[0])}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: browseropts <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands() {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
}

// newLogger writes text to a terminal and JSON otherwise.
func newLogger(w *os.File) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelWarn}
	if os.Getenv("BROWSEROPTS_DEBUG") != "" {
		options.Level = slog.LevelDebug
	}
	if term.IsTerminal(int(w.Fd())) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}
