package selectmenu

import (
	"fmt"
	"os"
	"strings"
	"time"

	"arcopilot/internal/catalog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// detailChrome is the number of lines around the detail viewport: title,
// pane border top and bottom, help line.
const detailChrome = 4

// detectGlamourStyle picks a glamour style once, honoring GLAMOUR_STYLE. The
// background query can hang on some terminals, so it is bounded by timeout.
func detectGlamourStyle(timeout time.Duration) string {
	style := os.Getenv("GLAMOUR_STYLE")
	if style != "" && style != "auto" {
		return style
	}

	ch := make(chan string, 1)
	go func() {
		// stdout may be a pipe carrying JSON
		out := termenv.NewOutput(os.Stderr)
		if out.HasDarkBackground() {
			ch <- "dark"
			return
		}
		ch <- "light"
	}()

	select {
	case s := <-ch:
		return s
	case <-time.After(timeout):
		return "dark"
	}
}

// detailMarkdown describes a copilot as markdown.
func detailMarkdown(item catalog.Item) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", item.DisplayName())
	if item.ID != "" {
		fmt.Fprintf(&b, "**ID:** `%s`\n\n", item.ID)
	}
	if item.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", item.Description)
	} else {
		b.WriteString("_No description_\n\n")
	}

	fmt.Fprintf(&b, "## Skills (%d)\n\n", len(item.Skills))
	for _, s := range item.Skills {
		name := s.Name
		if name == "" {
			name = "Unnamed skill"
		}
		fmt.Fprintf(&b, "- %s\n", name)
	}

	return b.String()
}

func renderDetailCmd(pos int, item catalog.Item, width int, style string) tea.Cmd {
	return func() tea.Msg {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return detailRenderedMsg{pos: pos, err: fmt.Errorf("failed to create renderer: %w", err)}
		}

		out, err := renderer.Render(detailMarkdown(item))
		if err != nil {
			return detailRenderedMsg{pos: pos, err: fmt.Errorf("failed to render markdown: %w", err)}
		}
		return detailRenderedMsg{pos: pos, content: out}
	}
}

// resizeDetail fits the viewport inside the pane border and padding.
func (m *Model) resizeDetail() {
	m.detail.Width = max(1, m.width-4)
	m.detail.Height = max(1, m.height-detailChrome)
}
