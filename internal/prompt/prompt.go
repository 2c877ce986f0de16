// Package prompt is the line-based copilot selection used when the
// full-screen menu cannot run. It needs no raw mode: the list is printed once
// and a single line of numbers is read back.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"arcopilot/internal/catalog"
	"arcopilot/internal/logging"

	"github.com/muesli/termenv"
)

const maxDescription = 40

// ErrNoInput is returned when the input ends before a line is read.
var ErrNoInput = errors.New("no selection entered")

// Prompter prints the numbered list to out and reads the answer from in.
type Prompter struct {
	in     io.Reader
	out    *termenv.Output
	logger *logging.AppLogger
}

func New(in io.Reader, out io.Writer, logger *logging.AppLogger) *Prompter {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Prompter{
		in:     in,
		out:    termenv.NewOutput(out),
		logger: logger,
	}
}

// Select lists items and returns the chosen ones in input order. An empty
// answer, or one with no valid numbers, yields an empty slice.
func (p *Prompter) Select(ctx context.Context, items []catalog.Item) ([]catalog.Item, error) {
	p.Display(items)

	fmt.Fprintln(p.out, "Enter the numbers of copilots to install (comma-separated):")
	fmt.Fprintln(p.out, p.out.String("Example: 1,3,5 or 'all' to select all:").Faint())
	fmt.Fprint(p.out, "> ")

	line, err := p.readLine(ctx)
	if err != nil {
		return nil, err
	}

	positions := ParseSelection(line, len(items))
	p.logger.Debug("Line selection parsed", "input", line, "positions", positions)

	selected := make([]catalog.Item, len(positions))
	for i, pos := range positions {
		selected[i] = items[pos]
	}
	return selected, nil
}

// Display prints the numbered list.
func (p *Prompter) Display(items []catalog.Item) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.out.String("Available Copilots:").Bold())
	fmt.Fprintln(p.out, strings.Repeat("=", 70))

	for i, item := range items {
		id := item.ID
		if id == "" {
			id = "Unknown ID"
		}
		fmt.Fprintf(p.out, "%d. %s\n", i+1, p.out.String(item.DisplayName()).Bold())
		fmt.Fprintf(p.out, "   Skills: %d | %s\n", len(item.Skills), truncateDescription(item.Description))
		fmt.Fprintf(p.out, "   ID: %s\n\n", id)
	}
}

// readLine reads one line, giving up when ctx is done. A terminal read cannot
// be interrupted, so the reading goroutine is left to finish on its own.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		line, err := bufio.NewReader(p.in).ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case r := <-ch:
		if errors.Is(r.err, io.EOF) {
			return "", ErrNoInput
		}
		if r.err != nil {
			return "", fmt.Errorf("failed to read selection: %w", r.err)
		}
		return r.line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ParseSelection turns an answer such as "1,3,5" or "all" into zero-based
// positions for a list of n items. Tokens that are not numbers or are out of
// range are skipped. The result is ascending and free of duplicates.
func ParseSelection(line string, n int) []int {
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, "all") {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}

	seen := make(map[int]struct{})
	positions := []int{}
	for _, tok := range strings.Split(line, ",") {
		num, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || num < 1 || num > n {
			continue
		}
		if _, dup := seen[num]; dup {
			continue
		}
		seen[num] = struct{}{}
		positions = append(positions, num-1)
	}
	sort.Ints(positions)
	return positions
}

func truncateDescription(desc string) string {
	if desc == "" {
		return "No description"
	}
	if utf8.RuneCountInString(desc) <= maxDescription {
		return desc
	}
	return string([]rune(desc)[:maxDescription-3]) + "..."
}
