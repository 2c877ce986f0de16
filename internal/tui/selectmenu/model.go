// Package selectmenu is the full-screen copilot selection menu.
//
// The menu is a thin bubbletea adapter over selector.State: key presses are
// translated into selector keys, the state machine decides what they mean,
// and the view renders a fixed header, a scrolling body and a fixed footer
// sized to the terminal.
//
// Screens:
//   - Startup: shown for large lists, offers to start in search mode
//   - List: the selection list in Browsing or SearchEntry mode
//   - Detail: markdown description of the highlighted copilot
package selectmenu

import (
	"errors"
	"fmt"
	"time"

	"arcopilot/internal/catalog"
	"arcopilot/internal/logging"
	"arcopilot/internal/selector"
	"arcopilot/internal/tui/helpers"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	// AutoSearchThreshold is the list size above which the menu offers to
	// start in search mode.
	AutoSearchThreshold = 20
	// DefaultStartupTimeout is how long the startup prompt waits for a key.
	DefaultStartupTimeout = 3 * time.Second

	DefaultTitle = "🚀 Select Copilots to Install"
)

// ErrCancelled is returned when the user leaves the menu without confirming.
var ErrCancelled = errors.New("selection cancelled")

type screen int

const (
	screenStartup screen = iota
	screenList
	screenDetail
)

func (s screen) String() string {
	switch s {
	case screenStartup:
		return "Startup"
	case screenList:
		return "List"
	case screenDetail:
		return "Detail"
	}
	return "Unknown"
}

// Options configures a menu session.
type Options struct {
	Title          string
	MatchMode      selector.MatchMode
	NoAutoSearch   bool          // skip the startup prompt for large lists
	StartupTimeout time.Duration // zero means DefaultStartupTimeout
	GlamourStyle   string        // detected from the terminal when empty
}

type (
	startupTimeoutMsg struct{}

	detailRenderedMsg struct {
		pos     int
		content string
		err     error
	}
)

// Result is the outcome of a confirmed session.
type Result struct {
	Items     []catalog.Item
	Positions []int
}

// Model is the bubbletea model for the select menu.
type Model struct {
	state  *selector.State
	keys   KeyMap
	help   help.Model
	logger *logging.AppLogger

	title          string
	width          int
	height         int
	screen         screen
	startupTimeout time.Duration
	outcome        selector.Outcome

	// detail pane
	detail       viewport.Model
	detailPos    int
	glamourStyle string
}

// NewModel creates a menu over items. The context dimensions are used until
// the first window size message arrives.
func NewModel(ctx helpers.UIContext, items []catalog.Item, opts Options) *Model {
	width, height := ctx.Dimensions()

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	timeout := opts.StartupTimeout
	if timeout <= 0 {
		timeout = DefaultStartupTimeout
	}

	logger := ctx.Logger
	if logger == nil {
		logger = logging.GetDefault()
	}

	h := help.New()
	h.Width = width

	m := &Model{
		state:          selector.New(items, selector.WithMatchMode(opts.MatchMode)),
		keys:           DefaultKeyMap(),
		help:           h,
		logger:         logger,
		title:          title,
		width:          width,
		height:         height,
		screen:         screenList,
		startupTimeout: timeout,
		detail:         viewport.New(width, height),
		glamourStyle:   opts.GlamourStyle,
	}
	if len(items) > AutoSearchThreshold && !opts.NoAutoSearch {
		m.screen = screenStartup
	}
	m.resizeDetail()

	return m
}

func (m *Model) Init() tea.Cmd {
	m.logger.Info("Select menu initialized", "items", m.state.Total(), "screen", m.screen.String())
	if m.screen == screenStartup {
		return tea.Tick(m.startupTimeout, func(time.Time) tea.Msg {
			return startupTimeoutMsg{}
		})
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.logger.LogMessage(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeDetail()
		m.state.EnsureVisible(m.bodyRows())
		return m, nil

	case startupTimeoutMsg:
		if m.screen == screenStartup {
			m.setScreen(screenList)
		}
		return m, nil

	case detailRenderedMsg:
		if msg.pos != m.detailPos {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Error("Failed to render copilot details", "error", msg.err)
			m.detail.SetContent(detailMarkdown(m.state.Item(msg.pos)))
			return m, nil
		}
		m.detail.SetContent(msg.content)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress routes key presses to the handler for the current screen.
// Ctrl+C cancels from anywhere.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Interrupt) {
		m.logger.LogUserAction("interrupt", m.screen.String())
		return m.finish(selector.Cancel)
	}

	switch m.screen {
	case screenStartup:
		return m.handleStartupKeys(msg)
	case screenDetail:
		return m.handleDetailKeys(msg)
	default:
		return m.handleListKeys(msg)
	}
}

// handleStartupKeys: Esc shows the full list, any other key starts searching.
// The key itself is not added to the search term.
func (m *Model) handleStartupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.setScreen(screenList)
	if !key.Matches(msg, m.keys.ClearSearch) {
		m.setMode(m.state.EnterSearch)
	}
	return m, nil
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Details, m.keys.ClearSearch, m.keys.Quit):
		m.setScreen(screenList)
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.Mode() == selector.Browsing {
		if key.Matches(msg, m.keys.Details) {
			return m.openDetail()
		}
		k, ok := m.keys.browseKey(msg)
		if !ok {
			return m, nil
		}
		return m.apply(k)
	}

	for _, k := range searchKeys(msg) {
		if model, cmd := m.apply(k); cmd != nil {
			return model, cmd
		}
	}
	return m, nil
}

// apply feeds one key to the state machine and keeps the cursor in view.
func (m *Model) apply(k selector.Key) (tea.Model, tea.Cmd) {
	before := m.state.Mode()
	outcome := m.state.HandleKey(k)
	if after := m.state.Mode(); after != before {
		m.logger.LogStateTransition("SelectModel", before.String(), after.String())
	}
	if outcome != selector.Continue {
		return m.finish(outcome)
	}
	m.state.EnsureVisible(m.bodyRows())
	return m, nil
}

func (m *Model) finish(outcome selector.Outcome) (tea.Model, tea.Cmd) {
	m.outcome = outcome
	m.logger.LogUserAction(outcome.String(), fmt.Sprintf("selected=%d", m.state.SelectedTotal()))
	return m, tea.Quit
}

func (m *Model) openDetail() (tea.Model, tea.Cmd) {
	pos, ok := m.state.Current()
	if !ok {
		return m, nil
	}
	if m.glamourStyle == "" {
		m.glamourStyle = detectGlamourStyle(50 * time.Millisecond)
		m.logger.Debug("Glamour style selected", "style", m.glamourStyle)
	}

	m.detailPos = pos
	m.detail.SetContent("Loading...")
	m.detail.GotoTop()
	m.setScreen(screenDetail)

	return m, renderDetailCmd(pos, m.state.Item(pos), m.detail.Width, m.glamourStyle)
}

// setMode runs a mode change and logs the transition.
func (m *Model) setMode(change func()) {
	before := m.state.Mode()
	change()
	m.logger.LogStateTransition("SelectModel", before.String(), m.state.Mode().String())
}

func (m *Model) setScreen(s screen) {
	m.logger.LogStateTransition("SelectModel", m.screen.String(), s.String())
	m.screen = s
}

// State exposes the selection state, mainly for tests.
func (m *Model) State() *selector.State { return m.state }

// Outcome reports how the session ended. It is Continue while running.
func (m *Model) Outcome() selector.Outcome { return m.outcome }

// Result returns the confirmed selection, or ErrCancelled when the session
// did not end with a confirm.
func (m *Model) Result() (Result, error) {
	if m.outcome != selector.Confirm {
		return Result{}, ErrCancelled
	}
	return Result{
		Items:     m.state.Selection(),
		Positions: m.state.SelectedPositions(),
	}, nil
}
