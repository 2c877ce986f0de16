// Package commands is the arcopilot command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"arcopilot/internal/terminal"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// Exit statuses.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitCancelled = 2
)

// exitError carries the process exit status for a failed command. The message
// has already been printed when Silent is set.
type exitError struct {
	Code   int
	Err    error
	Silent bool
}

func (e *exitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *exitError) Unwrap() error { return e.Err }

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitError
}

// IsSilent reports whether err has already been reported to the user.
func IsSilent(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.Silent
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "arcopilot",
		Short: "Pick AnswerRocket copilots and serve their skills over MCP",
		Long: "arcopilot selects copilots from a JSON list in an interactive terminal menu " +
			"and serves a copilot's skills as Model Context Protocol tools.",
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// piped input or a file argument means the caller wants a selection
			if len(args) == 1 || !stdinIsTerminal(cmd.InOrStdin()) {
				return runSelect(cmd, args, selectOptions{})
			}
			return cmd.Help()
		},
	}

	root.AddCommand(newSelectCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newTokenCmd())
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func stdinIsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && terminal.IsTerminal(f)
}
