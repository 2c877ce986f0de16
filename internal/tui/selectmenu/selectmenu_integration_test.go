package selectmenu

import (
	"strings"
	"testing"
	"time"

	"arcopilot/internal/selector"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSearchToggleConfirm drives the whole search, toggle and confirm flow
func TestSearchToggleConfirm(t *testing.T) {
	items := loadItems(t, `[{"name":"A"},{"name":"B"},{"name":"C"}]`)
	model := newTestModel(t, items, 80, 24, Options{})
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	waitForString(t, tm, "Showing: 3/3")

	tm.Send(runes("/"))
	tm.Send(runes("b"))
	waitForString(t, tm, "Showing: 1/3")

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeySpace})
	waitForString(t, tm, "Selected: 1 shown, 1 total")

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(*Model)
	require.True(t, ok)

	res, err := final.Result()
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, `{"name":"B"}`, string(res.Items[0].Raw()))
}

// TestCancelAfterSelecting checks that q discards any selection
func TestCancelAfterSelecting(t *testing.T) {
	model := newTestModel(t, numberedItems(t, 5), 80, 24, Options{})
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	waitForString(t, tm, "Showing: 5/5")
	tm.Send(runes("a"))
	waitForString(t, tm, "Selected: 5 shown, 5 total")
	tm.Send(runes("q"))

	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(*Model)
	assert.Equal(t, selector.Cancel, final.Outcome())

	_, err := final.Result()
	assert.ErrorIs(t, err, ErrCancelled)
}

// TestStartupPromptTimesOut checks that a large list falls through to browsing
func TestStartupPromptTimesOut(t *testing.T) {
	model := newTestModel(t, numberedItems(t, 25), 80, 24, Options{StartupTimeout: 100 * time.Millisecond})
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	waitForString(t, tm, "Showing: 25/25")

	tm.Send(runes("j"))
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(*Model)
	assert.Equal(t, selector.Browsing, final.State().Mode())
	assert.Equal(t, 1, final.State().Cursor())
	assert.Equal(t, selector.Confirm, final.Outcome())
}

// TestStartupPromptStartsSearch types straight into the search after the prompt
func TestStartupPromptStartsSearch(t *testing.T) {
	model := newTestModel(t, numberedItems(t, 25), 80, 24, Options{StartupTimeout: time.Minute})
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	waitForString(t, tm, "Starting in search mode")

	tm.Send(runes("x"))
	waitForString(t, tm, "🔍 Search: _")

	tm.Send(runes("copilot-1"))
	waitForString(t, tm, "Showing: 10/25")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(*Model)
	assert.Equal(t, selector.Cancel, final.Outcome())
	assert.Equal(t, "copilot-1", final.State().SearchTerm())
}

// Helper function to wait for a specific string in the output
func waitForString(t *testing.T, tm *teatest.TestModel, s string) {
	teatest.WaitFor(
		t,
		tm.Output(),
		func(b []byte) bool {
			return strings.Contains(string(b), s)
		},
		teatest.WithCheckInterval(time.Millisecond*100),
		teatest.WithDuration(time.Second*3),
	)
}
