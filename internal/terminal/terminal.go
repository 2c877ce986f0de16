// Package terminal finds the controlling terminal. Standard input usually
// carries the copilot JSON, so keystrokes are read from the terminal device
// instead.
package terminal

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"
)

const (
	DefaultRows = 24
	DefaultCols = 80
)

// ErrNoTTY is returned when the process has no usable controlling terminal.
var ErrNoTTY = errors.New("no controlling terminal")

// Path returns the controlling terminal device for the current platform.
func Path() string {
	if runtime.GOOS == "windows" {
		return "CONIN$"
	}
	return "/dev/tty"
}

// OpenTTY opens the controlling terminal for reading and writing. The caller
// closes the file.
func OpenTTY() (*os.File, error) {
	f, err := os.OpenFile(Path(), os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTTY, err)
	}
	if !term.IsTerminal(int(f.Fd())) {
		f.Close()
		return nil, fmt.Errorf("%w: %s is not a terminal", ErrNoTTY, Path())
	}
	return f, nil
}

// IsTerminal reports whether f is connected to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Size returns the terminal size for fd, or 24x80 when it cannot be read.
func Size(fd int) (rows, cols int) {
	cols, rows, err := term.GetSize(fd)
	if err != nil || rows <= 0 || cols <= 0 {
		return DefaultRows, DefaultCols
	}
	return rows, cols
}

// ReadSecret prints prompt to f and reads a line without echo.
func ReadSecret(f *os.File, prompt string) (string, error) {
	fmt.Fprint(f, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(f)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
