package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"arcopilot/internal/catalog"
	"arcopilot/internal/logging"
	"arcopilot/internal/prompt"
	"arcopilot/internal/selector"
	"arcopilot/internal/terminal"
	"arcopilot/internal/tui/selectmenu"

	"github.com/spf13/cobra"
)

// ttyDevice is the controlling terminal as the select command uses it.
type ttyDevice interface {
	io.ReadWriteCloser
	Fd() uintptr
}

// Replaced in tests.
var (
	openTTY = func() (ttyDevice, error) {
		f, err := terminal.OpenTTY()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	runSelector = selectmenu.Run
)

type selectOptions struct {
	simple       bool
	regex        bool
	noAutoSearch bool
	title        string
}

func newSelectCmd() *cobra.Command {
	var opts selectOptions

	cmd := &cobra.Command{
		Use:   "select [file]",
		Short: "Choose copilots from a JSON list",
		Long: "Reads a JSON array of copilots from a file or stdin, lets you pick some in an " +
			"interactive menu, and writes the picked records to stdout as JSON.\n\n" +
			"Exit status is 1 for unreadable input and 2 when nothing is selected.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.simple, "simple", false, "use the numbered line prompt instead of the menu")
	cmd.Flags().BoolVar(&opts.regex, "regex", false, "treat the search term as a regular expression")
	cmd.Flags().BoolVar(&opts.noAutoSearch, "no-auto-search", false, "skip the search prompt shown for long lists")
	cmd.Flags().StringVar(&opts.title, "title", "", "menu title")
	return cmd
}

func runSelect(cmd *cobra.Command, args []string, opts selectOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.GetDefault()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	items, err := loadItems(cmd, args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return &exitError{Code: ExitError, Err: err, Silent: true}
	}
	logger.Info("Loaded copilots", "count", len(items))

	tty, err := openTTY()
	if err != nil {
		logger.Warn("No controlling terminal", "error", err)
		// with a file argument stdin is still free for the line prompt
		if opts.simple && len(args) == 1 && args[0] != "-" {
			selected, err := prompt.New(cmd.InOrStdin(), stderr, logger).Select(ctx, items)
			return finishSelect(stdout, stderr, selected, err)
		}
		fmt.Fprintln(stderr, "Warning: no interactive terminal available, returning all copilots")
		return writeSelection(stdout, stderr, items)
	}
	defer tty.Close()

	if opts.simple {
		selected, err := prompt.New(tty, tty, logger).Select(ctx, items)
		return finishSelect(stdout, stderr, selected, err)
	}

	rows, cols := terminal.Size(int(tty.Fd()))
	menuOpts := selectmenu.Options{
		Title:        opts.title,
		NoAutoSearch: opts.noAutoSearch,
	}
	if opts.regex {
		menuOpts.MatchMode = selector.MatchRegex
	}

	res, err := runSelector(ctx, items, selectmenu.Session{
		Input:  tty,
		Output: tty,
		Width:  cols,
		Height: rows,
		Logger: logger,
	}, menuOpts)

	switch {
	case err == nil:
		return finishSelect(stdout, stderr, res.Items, nil)
	case errors.Is(err, selectmenu.ErrCancelled), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return noSelection(stderr)
	}

	// the menu has already restored the terminal
	logger.Warn("Interactive selector failed, falling back to line prompt", "error", err)
	fmt.Fprintf(stderr, "Warning: %v\nFalling back to simple selection.\n", err)
	selected, err := prompt.New(tty, tty, logger).Select(ctx, items)
	return finishSelect(stdout, stderr, selected, err)
}

func loadItems(cmd *cobra.Command, args []string) ([]catalog.Item, error) {
	if len(args) == 1 && args[0] != "-" {
		return catalog.LoadFile(args[0])
	}
	return catalog.Load(cmd.InOrStdin())
}

func finishSelect(stdout, stderr io.Writer, selected []catalog.Item, err error) error {
	if err != nil {
		if errors.Is(err, prompt.ErrNoInput) || errors.Is(err, context.Canceled) {
			return noSelection(stderr)
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return &exitError{Code: ExitError, Err: err, Silent: true}
	}
	if len(selected) == 0 {
		return noSelection(stderr)
	}
	fmt.Fprintf(stderr, "Selected %d copilots for installation\n", len(selected))
	return writeSelection(stdout, stderr, selected)
}

func writeSelection(stdout, stderr io.Writer, items []catalog.Item) error {
	if err := catalog.Encode(stdout, items); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return &exitError{Code: ExitError, Err: err, Silent: true}
	}
	return nil
}

func noSelection(stderr io.Writer) error {
	fmt.Fprintln(stderr, "No copilots selected")
	return &exitError{Code: ExitCancelled, Err: errors.New("no copilots selected"), Silent: true}
}
