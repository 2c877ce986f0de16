// Package selector holds the selection state behind the interactive copilot
// menu: the precomputed search index, the filtered view, the cursor and
// scroll window, and the set of checked items.
//
// State is not safe for concurrent use. It is owned by a single menu session
// and discarded once the caller has read the selection.
package selector

import (
	"sort"
	"strings"
	"time"

	"arcopilot/internal/catalog"

	"github.com/dlclark/regexp2"
)

// PageSize is the cursor jump for page-up and page-down.
const PageSize = 10

// regexMatchTimeout bounds a single pattern evaluation against one item.
const regexMatchTimeout = 50 * time.Millisecond

// Mode is the input mode of a menu session.
type Mode int

const (
	Browsing    Mode = iota // keys are commands
	SearchEntry             // keys edit the search term
)

func (m Mode) String() string {
	switch m {
	case Browsing:
		return "Browsing"
	case SearchEntry:
		return "SearchEntry"
	}
	return "Unknown"
}

// MatchMode selects how the search term is applied to the search index.
type MatchMode int

const (
	// MatchTokens keeps items containing every whitespace-separated token.
	MatchTokens MatchMode = iota
	// MatchRegex treats the whole term as a case-insensitive pattern.
	MatchRegex
)

// Option configures a State.
type Option func(*State)

// WithMatchMode sets the search match mode.
func WithMatchMode(mode MatchMode) Option {
	return func(s *State) {
		s.matchMode = mode
	}
}

// State is the selection state for one menu session.
type State struct {
	items       []catalog.Item
	searchIndex []string
	nameGroups  map[string][]int

	selected map[int]struct{}
	filtered []int
	cursor   int
	offset   int

	searchTerm   string
	mode         Mode
	matchMode    MatchMode
	invalidRegex bool
	pattern      *regexp2.Regexp
}

// New builds the search index and duplicate groups for items.
func New(items []catalog.Item, opts ...Option) *State {
	s := &State{
		items:       items,
		searchIndex: make([]string, len(items)),
		nameGroups:  make(map[string][]int),
		selected:    make(map[int]struct{}),
		filtered:    make([]int, len(items)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, item := range items {
		s.searchIndex[i] = item.SearchText()
		name := item.DisplayName()
		s.nameGroups[name] = append(s.nameGroups[name], i)
		s.filtered[i] = i
	}

	return s
}

// Items returns the full item list.
func (s *State) Items() []catalog.Item { return s.items }

// Item returns the item at position pos.
func (s *State) Item(pos int) catalog.Item { return s.items[pos] }

// Filtered returns the positions matching the current search, in input order.
func (s *State) Filtered() []int { return s.filtered }

// Cursor returns the highlighted row as an index into Filtered.
func (s *State) Cursor() int { return s.cursor }

// Offset returns the first visible row as an index into Filtered.
func (s *State) Offset() int { return s.offset }

// SearchTerm returns the active search term.
func (s *State) SearchTerm() string { return s.searchTerm }

// Mode returns the current input mode.
func (s *State) Mode() Mode { return s.mode }

// MatchMode returns the configured match mode.
func (s *State) MatchMode() MatchMode { return s.matchMode }

// InvalidPattern reports whether the last regex search term failed to
// compile and token matching was used instead.
func (s *State) InvalidPattern() bool { return s.invalidRegex }

// Pattern returns the compiled regex for the current search term, or nil
// outside regex mode, for an empty term, or when the term did not compile.
func (s *State) Pattern() *regexp2.Regexp { return s.pattern }

// Current returns the position of the highlighted item.
func (s *State) Current() (int, bool) {
	if len(s.filtered) == 0 {
		return 0, false
	}
	return s.filtered[s.cursor], true
}

// IsSelected reports whether the item at pos is checked.
func (s *State) IsSelected(pos int) bool {
	_, ok := s.selected[pos]
	return ok
}

// Total is the number of items.
func (s *State) Total() int { return len(s.items) }

// Visible is the number of items matching the current search.
func (s *State) Visible() int { return len(s.filtered) }

// SelectedTotal is the number of checked items.
func (s *State) SelectedTotal() int { return len(s.selected) }

// SelectedVisible is the number of checked items within the current filter.
func (s *State) SelectedVisible() int {
	n := 0
	for _, pos := range s.filtered {
		if s.IsSelected(pos) {
			n++
		}
	}
	return n
}

// IsDuplicate reports whether another item shares the name of the item at pos.
func (s *State) IsDuplicate(pos int) bool {
	return len(s.nameGroups[s.items[pos].DisplayName()]) > 1
}

// DuplicateNames is the number of names shared by more than one item.
func (s *State) DuplicateNames() int {
	n := 0
	for _, group := range s.nameGroups {
		if len(group) > 1 {
			n++
		}
	}
	return n
}

// SetSearch replaces the search term and re-filters.
func (s *State) SetSearch(term string) {
	s.searchTerm = term
	s.Filter()
}

// AppendSearch adds r to the search term and re-filters.
func (s *State) AppendSearch(r rune) {
	s.SetSearch(s.searchTerm + string(r))
}

// Backspace removes the last character of the search term and re-filters.
func (s *State) Backspace() {
	if s.searchTerm == "" {
		return
	}
	r := []rune(s.searchTerm)
	s.SetSearch(string(r[:len(r)-1]))
}

// ClearSearch empties the search term and re-filters.
func (s *State) ClearSearch() {
	s.SetSearch("")
}

// EnterSearch switches to SearchEntry mode.
func (s *State) EnterSearch() {
	s.mode = SearchEntry
}

// ExitSearch returns to Browsing mode, clearing the term when clear is set.
func (s *State) ExitSearch(clear bool) {
	if clear {
		s.ClearSearch()
	}
	s.mode = Browsing
}

// Filter recomputes the filtered positions for the current search term,
// resets the scroll window and clamps the cursor.
func (s *State) Filter() {
	s.filtered = s.match(s.searchTerm)

	if s.cursor >= len(s.filtered) {
		s.cursor = max(0, len(s.filtered)-1)
	}
	s.offset = 0
}

func (s *State) match(term string) []int {
	s.invalidRegex = false
	s.pattern = nil

	if term == "" {
		all := make([]int, len(s.items))
		for i := range all {
			all[i] = i
		}
		return all
	}

	if s.matchMode == MatchRegex {
		re, err := regexp2.Compile(term, regexp2.IgnoreCase)
		if err == nil {
			re.MatchTimeout = regexMatchTimeout
			s.pattern = re
			return s.matchRegex(re)
		}
		s.invalidRegex = true
	}

	return s.matchTokens(strings.Fields(strings.ToLower(term)))
}

func (s *State) matchTokens(tokens []string) []int {
	matches := make([]int, 0, len(s.items))
	for i, text := range s.searchIndex {
		if containsAll(text, tokens) {
			matches = append(matches, i)
		}
	}
	return matches
}

func (s *State) matchRegex(re *regexp2.Regexp) []int {
	matches := make([]int, 0, len(s.items))
	for i, text := range s.searchIndex {
		// a timed-out evaluation counts as no match
		if ok, err := re.MatchString(text); err == nil && ok {
			matches = append(matches, i)
		}
	}
	return matches
}

func containsAll(text string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(text, tok) {
			return false
		}
	}
	return true
}

// MoveUp moves the cursor one row up, stopping at the first row.
func (s *State) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// MoveDown moves the cursor one row down, stopping at the last row.
func (s *State) MoveDown() {
	if s.cursor < len(s.filtered)-1 {
		s.cursor++
	}
}

// PageUp moves the cursor PageSize rows up.
func (s *State) PageUp() {
	s.cursor = max(0, s.cursor-PageSize)
}

// PageDown moves the cursor PageSize rows down.
func (s *State) PageDown() {
	s.cursor = max(0, min(len(s.filtered)-1, s.cursor+PageSize))
}

// Toggle flips the selection of the highlighted item.
func (s *State) Toggle() {
	pos, ok := s.Current()
	if !ok {
		return
	}
	s.togglePos(pos)
}

func (s *State) togglePos(pos int) {
	if s.IsSelected(pos) {
		delete(s.selected, pos)
		return
	}
	s.selected[pos] = struct{}{}
}

// SelectAllVisible checks every item in the current filter.
func (s *State) SelectAllVisible() {
	for _, pos := range s.filtered {
		s.selected[pos] = struct{}{}
	}
}

// DeselectAllVisible unchecks every item in the current filter. Items
// selected outside the filter are kept.
func (s *State) DeselectAllVisible() {
	for _, pos := range s.filtered {
		delete(s.selected, pos)
	}
}

// ToggleAllVisible flips every item in the current filter individually.
func (s *State) ToggleAllVisible() {
	for _, pos := range s.filtered {
		s.togglePos(pos)
	}
}

// EnsureVisible scrolls the window of the given height by the minimum amount
// needed to keep the cursor in view.
func (s *State) EnsureVisible(rows int) {
	if rows < 1 {
		rows = 1
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	} else if s.cursor >= s.offset+rows {
		s.offset = s.cursor - rows + 1
	}
}

// Selection returns the checked items in input order.
func (s *State) Selection() []catalog.Item {
	positions := s.SelectedPositions()
	out := make([]catalog.Item, len(positions))
	for i, pos := range positions {
		out[i] = s.items[pos]
	}
	return out
}

// SelectedPositions returns the checked positions in ascending order.
func (s *State) SelectedPositions() []int {
	positions := make([]int, 0, len(s.selected))
	for pos := range s.selected {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}
