package selectmenu

import (
	"arcopilot/internal/selector"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Toggle      key.Binding
	SelectAll   key.Binding
	DeselectAll key.Binding
	ToggleAll   key.Binding
	Search      key.Binding
	ClearSearch key.Binding
	Confirm     key.Binding
	Quit        key.Binding
	Details     key.Binding
	Interrupt   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		SelectAll:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all shown")),
		DeselectAll: key.NewBinding(key.WithKeys("n", "d"), key.WithHelp("n/d", "deselect all shown")),
		ToggleAll:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle all shown")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		ClearSearch: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		Confirm:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "cancel")),
		Details:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "details")),
		Interrupt:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "abort")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Up, k.Down, k.Toggle, k.Confirm, k.Quit}
}

// FullHelp is laid out as columns of three so the rendered help is always
// three lines tall.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Up, k.Down},
		{k.Toggle, k.SelectAll, k.DeselectAll},
		{k.ToggleAll, k.PageUp, k.PageDown},
		{k.ClearSearch, k.Confirm, k.Quit},
		{k.Details},
	}
}

// browseKey maps a key press in Browsing mode onto a selector key.
func (k KeyMap) browseKey(msg tea.KeyMsg) (selector.Key, bool) {
	switch {
	case key.Matches(msg, k.Interrupt):
		return selector.Key{Kind: selector.KeyInterrupt}, true
	case key.Matches(msg, k.Up):
		return selector.Key{Kind: selector.KeyUp}, true
	case key.Matches(msg, k.Down):
		return selector.Key{Kind: selector.KeyDown}, true
	case key.Matches(msg, k.PageUp):
		return selector.Key{Kind: selector.KeyPageUp}, true
	case key.Matches(msg, k.PageDown):
		return selector.Key{Kind: selector.KeyPageDown}, true
	case key.Matches(msg, k.Toggle):
		return selector.Key{Kind: selector.KeySpace}, true
	case key.Matches(msg, k.SelectAll):
		return selector.Rune('a'), true
	case key.Matches(msg, k.DeselectAll):
		return selector.Rune('n'), true
	case key.Matches(msg, k.ToggleAll):
		return selector.Rune('t'), true
	case key.Matches(msg, k.Search):
		return selector.Rune('/'), true
	case key.Matches(msg, k.ClearSearch):
		return selector.Key{Kind: selector.KeyEscape}, true
	case key.Matches(msg, k.Confirm):
		return selector.Key{Kind: selector.KeyEnter}, true
	case key.Matches(msg, k.Quit):
		return selector.Rune('q'), true
	}
	return selector.Key{}, false
}

// searchKeys maps a key press in SearchEntry mode. Bindings are ignored here
// so that command letters can be typed into the search term.
func searchKeys(msg tea.KeyMsg) []selector.Key {
	switch msg.Type {
	case tea.KeyCtrlC:
		return []selector.Key{{Kind: selector.KeyInterrupt}}
	case tea.KeyEnter:
		return []selector.Key{{Kind: selector.KeyEnter}}
	case tea.KeyEsc:
		return []selector.Key{{Kind: selector.KeyEscape}}
	case tea.KeyBackspace:
		return []selector.Key{{Kind: selector.KeyBackspace}}
	case tea.KeySpace:
		return []selector.Key{{Kind: selector.KeySpace}}
	case tea.KeyRunes:
		if msg.Alt {
			return nil
		}
		// a paste arrives as one message carrying several runes
		keys := make([]selector.Key, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			keys = append(keys, selector.Rune(r))
		}
		return keys
	}
	return nil
}
