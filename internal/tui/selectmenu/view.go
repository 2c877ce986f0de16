package selectmenu

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"arcopilot/internal/selector"
	"arcopilot/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/dlclark/regexp2"
	"github.com/muesli/reflow/truncate"
)

const (
	headerLines = 8
	footerLines = 3

	// rowIndent is the width reserved for the cursor and checkbox columns.
	rowIndent = 8

	maxDescription = 35
	maxRuleWidth   = 80
	duplicateMark  = "⚠"
)

func (m *Model) View() string {
	switch m.screen {
	case screenStartup:
		return m.viewStartup()
	case screenDetail:
		return m.viewDetail()
	default:
		return m.viewList()
	}
}

func (m *Model) viewStartup() string {
	lines := []string{
		styles.TitleStyle.Render(m.title),
		"",
		fmt.Sprintf("📋 Found %d copilots. Starting in search mode...", m.state.Total()),
		styles.HelpStyle.Render("Press any key to begin searching, or ESC to see all copilots."),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewDetail() string {
	item := m.state.Item(m.detailPos)
	lines := []string{
		styles.TitleStyle.Render(truncate.StringWithTail(item.DisplayName(), uint(max(1, m.width)), "...")),
		styles.PaneStyle.Render(m.detail.View()),
		styles.HelpStyle.Render("↑/↓ scroll • i/esc/q close"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewList() string {
	lines := make([]string, 0, m.height)
	lines = append(lines, m.header()...)
	lines = append(lines, m.body()...)
	lines = append(lines, m.footer()...)
	return strings.Join(lines, "\n")
}

// bodyRows is the number of list rows that fit between header and footer.
func (m *Model) bodyRows() int {
	return max(1, m.height-headerLines-footerLines)
}

func (m *Model) header() []string {
	rule := strings.Repeat("=", min(m.width, maxRuleWidth))
	divider := strings.Repeat("-", min(m.width, maxRuleWidth))

	helpLines := fitLines(strings.Split(m.help.FullHelpView(m.keys.FullHelp()), "\n"), 3)

	lines := []string{
		styles.TitleStyle.Render(m.title),
		styles.RuleStyle.Render(rule),
		m.statusLine(),
		"",
	}
	lines = append(lines, helpLines...)
	lines = append(lines, styles.RuleStyle.Render(divider))
	return lines
}

func (m *Model) statusLine() string {
	var parts []string
	if term := m.state.SearchTerm(); term != "" {
		search := fmt.Sprintf("Search: '%s'", term)
		if m.state.InvalidPattern() {
			search += styles.ErrorStyle.Render(" (invalid pattern, matching words)")
		}
		parts = append(parts, search)
	}
	parts = append(parts,
		fmt.Sprintf("Showing: %d/%d", m.state.Visible(), m.state.Total()),
		fmt.Sprintf("Selected: %d shown, %d total", m.state.SelectedVisible(), m.state.SelectedTotal()),
	)

	line := strings.Join(parts, " | ")
	return styles.StatusStyle.Render(truncate.StringWithTail(line, uint(max(1, m.width)), "..."))
}

func (m *Model) body() []string {
	rows := m.bodyRows()

	if m.state.Visible() == 0 {
		return fitLines([]string{
			"",
			"  No copilots match your search criteria.",
			"  Try different search terms or press ESC to clear the search.",
		}, rows)
	}

	highlight := m.highlighter()
	filtered := m.state.Filtered()
	end := min(m.state.Offset()+rows, len(filtered))

	lines := make([]string, 0, rows)
	for row := m.state.Offset(); row < end; row++ {
		lines = append(lines, m.renderRow(row, filtered[row], highlight))
	}
	return fitLines(lines, rows)
}

func (m *Model) renderRow(row, pos int, highlight func(string) string) string {
	cursor := " "
	if row == m.state.Cursor() {
		cursor = styles.CursorRowStyle.Render(">")
	}
	check := "[ ]"
	if m.state.IsSelected(pos) {
		check = styles.SelectedMarkStyle.Render("[x]")
	}

	info := highlight(m.summary(pos))
	info = truncate.StringWithTail(info, uint(max(1, m.width-rowIndent)), "...")

	return fmt.Sprintf("%s %s %s", cursor, check, info)
}

// summary is the one-line description of the item at pos.
func (m *Model) summary(pos int) string {
	item := m.state.Item(pos)

	name := item.DisplayName()
	if m.state.IsDuplicate(pos) {
		name += " " + duplicateMark
	}

	skills := fmt.Sprintf("%d skill", len(item.Skills))
	if len(item.Skills) != 1 {
		skills += "s"
	}

	return fmt.Sprintf("%s • %s • %s • ID: %s", name, skills, shortDescription(item.Description), item.ShortID())
}

func shortDescription(desc string) string {
	if desc == "" {
		return "No description"
	}
	if utf8.RuneCountInString(desc) <= maxDescription {
		return desc
	}
	r := []rune(desc)
	return string(r[:maxDescription-3]) + "..."
}

func (m *Model) footer() []string {
	lines := []string{""}

	more := ""
	if visible := m.state.Visible(); visible > 0 {
		last := min(m.state.Offset()+m.bodyRows(), visible) - 1
		if last < visible-1 {
			more = fmt.Sprintf("↓ %d more below", visible-last-1)
		}
	}
	lines = append(lines, styles.HelpStyle.Render(more))

	switch {
	case m.state.Mode() == selector.SearchEntry:
		lines = append(lines, fmt.Sprintf("🔍 Search: %s_", m.state.SearchTerm()))
	case m.state.DuplicateNames() > 0:
		lines = append(lines, styles.WarningStyle.Render(
			fmt.Sprintf("%s  %d copilot names have duplicates (marked with %s)", duplicateMark, m.state.DuplicateNames(), duplicateMark)))
	default:
		lines = append(lines, "")
	}
	return lines
}

// highlighter returns the function that marks search matches in a row.
// Matches are only marked while the search term is being edited.
func (m *Model) highlighter() func(string) string {
	term := m.state.SearchTerm()
	if m.state.Mode() != selector.SearchEntry || term == "" {
		return func(s string) string { return s }
	}

	if re := m.state.Pattern(); re != nil {
		return func(s string) string {
			out, err := re.ReplaceFunc(s, func(match regexp2.Match) string {
				return styles.MatchStyle.Render(match.String())
			}, -1, -1)
			if err != nil {
				return s
			}
			return out
		}
	}

	tokens := strings.Fields(strings.ToLower(term))
	return func(s string) string {
		return highlightTokens(s, tokens, styles.MatchStyle)
	}
}

// highlightTokens styles every case-insensitive occurrence of each token.
// Overlapping matches are merged into a single styled run.
func highlightTokens(text string, tokens []string, style lipgloss.Style) string {
	runes := []rune(text)
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	marked := make([]bool, len(runes))
	for _, tok := range tokens {
		t := []rune(tok)
		if len(t) == 0 {
			continue
		}
		for i := 0; i+len(t) <= len(lower); i++ {
			if slices.Equal(lower[i:i+len(t)], t) {
				for j := i; j < i+len(t); j++ {
					marked[j] = true
				}
			}
		}
	}

	var b strings.Builder
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && marked[j] == marked[i] {
			j++
		}
		segment := string(runes[i:j])
		if marked[i] {
			segment = style.Render(segment)
		}
		b.WriteString(segment)
		i = j
	}
	return b.String()
}

// fitLines pads or cuts lines to exactly n entries.
func fitLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return lines
}
