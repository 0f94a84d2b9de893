// Command dgaops exports DGA detection models from an H2O AutoML run and
// turns detection findings into incident-response playbooks.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

// cliError carries the process exit code for err.
type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func (e cliError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		var ce cliError
		if errors.As(err, &ce) {
			fmt.Fprintln(stderr, "Error:", ce.err)
			return ce.code
		}
		fmt.Fprintln(stderr, "Error:", err)
		return exitFailure
	}
	return exitOK
}
