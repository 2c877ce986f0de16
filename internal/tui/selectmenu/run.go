package selectmenu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"arcopilot/internal/catalog"
	"arcopilot/internal/logging"
	"arcopilot/internal/tui/helpers"

	tea "github.com/charmbracelet/bubbletea"
)

// Session wires a menu to its terminal.
type Session struct {
	Input  io.Reader // keystrokes, normally the controlling terminal
	Output io.Writer // screen, normally the controlling terminal so stdout stays clean
	Width  int       // initial size, zero for the default
	Height int
	Logger *logging.AppLogger
}

// Run shows the menu until the user confirms or cancels. The terminal is in
// raw mode and on the alternate screen only for the duration of the call,
// and bubbletea restores it on every exit path including panics.
//
// A cancel, by key or by interrupt signal, returns ErrCancelled.
func Run(ctx context.Context, items []catalog.Item, session Session, opts Options) (Result, error) {
	start := time.Now()
	logger := session.Logger
	if logger == nil {
		logger = logging.GetDefault()
	}
	defer logger.LogPerformance("select menu", start)

	m := NewModel(helpers.NewUIContext(session.Width, session.Height, logger), items, opts)

	programOpts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	}
	if session.Input != nil {
		programOpts = append(programOpts, tea.WithInput(session.Input))
	}
	if session.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(session.Output))
	}

	final, err := tea.NewProgram(m, programOpts...).Run()
	if err != nil {
		switch {
		case errors.Is(err, tea.ErrInterrupted):
			return Result{}, ErrCancelled
		case ctx.Err() != nil:
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("interactive selector failed: %w", err)
	}

	fm, ok := final.(*Model)
	if !ok {
		return Result{}, fmt.Errorf("interactive selector returned unexpected model %T", final)
	}
	return fm.Result()
}
